package tasktracker

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured-logging façade used throughout the
// package: a thin wrapper around *logiface.Logger[*stumpy.Event] (the
// teacher's sibling packages in the same source tree), so the rest of the
// package logs through a handful of named methods instead of importing
// stumpy directly. Logged events: admission rejections (debug),
// contract-violation panics (error, before the panic unwinds), shutdown
// phase transitions (info), fence toggles (info), and best-effort
// preemption/promotion (debug).
type Logger struct {
	log *logiface.Logger[*stumpy.Event]
}

// defaultLogger writes to os.Stderr at logiface.LevelInformational, the
// same default verbosity the teacher's own hand-rolled logger shipped with.
func defaultLogger() *Logger {
	return NewLogger(os.Stderr, logiface.LevelInformational)
}

// NewLogger builds a Logger writing stumpy-encoded events to w at level,
// suitable for passing to [WithLogger]. Pass io.Discard to silence the
// tracker's internal logging entirely.
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	return &Logger{
		log: stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
			logiface.WithLevel[*stumpy.Event](level),
		),
	}
}

func (l *Logger) admissionRejected(op string, token SequenceToken, behavior ShutdownBehavior) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Debug().
		Str(`op`, op).
		Uint64(`sequence_token`, token.id).
		Str(`shutdown_behavior`, behavior.String()).
		Log(`admission rejected`)
}

func (l *Logger) contractViolation(err *ContractViolationError) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Err().
		Str(`op`, err.Op).
		Err(err.Cause).
		Log(`contract violation`)
}

func (l *Logger) shutdownPhase(state ShutdownState) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Info().
		Str(`state`, state.String()).
		Log(`shutdown phase transition`)
}

func (l *Logger) fenceToggled(enabled bool) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Info().
		Bool(`enabled`, enabled).
		Log(`execution fence toggled`)
}

func (l *Logger) sequencePreempted(token SequenceToken, priority Priority) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Debug().
		Uint64(`sequence_token`, token.id).
		Str(`priority`, priority.String()).
		Log(`sequence preempted`)
}

func (l *Logger) sequencePromoted(token SequenceToken, priority Priority) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Debug().
		Uint64(`sequence_token`, token.id).
		Str(`priority`, priority.String()).
		Log(`sequence promoted`)
}
