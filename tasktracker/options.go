package tasktracker

import "time"

// trackerOptions holds configuration resolved by NewTaskTracker.
type trackerOptions struct {
	maxConcurrentBestEffortSequences int // -1 means unbounded
	logger                           *Logger
	metrics                          MetricsSink
	delaySource                      DelaySource
}

// Option configures a TaskTracker at construction.
type Option interface {
	applyTracker(*trackerOptions)
}

type optionFunc func(*trackerOptions)

func (f optionFunc) applyTracker(opts *trackerOptions) { f(opts) }

// WithMaxConcurrentBestEffortSequences caps the number of best-effort
// sequences the tracker will admit concurrently while the execution fence
// is off. Zero is legal (all best-effort sequences preempt until
// shutdown). The default, if this option is omitted, is unbounded.
func WithMaxConcurrentBestEffortSequences(n int) Option {
	return optionFunc(func(opts *trackerOptions) {
		opts.maxConcurrentBestEffortSequences = n
	})
}

// WithLogger overrides the default stderr logiface/stumpy logger.
func WithLogger(log *Logger) Option {
	return optionFunc(func(opts *trackerOptions) {
		opts.logger = log
	})
}

// WithMetricsSink overrides the default no-op MetricsSink.
func WithMetricsSink(sink MetricsSink) Option {
	return optionFunc(func(opts *trackerOptions) {
		opts.metrics = sink
	})
}

// DelaySource is the "TaskMayRun" oracle named in spec.md §6: it reports
// whether task's delay has elapsed. The tracker treats it as opaque.
type DelaySource func(task *Task) bool

// WithDelaySource overrides the default delay source, which compares
// time.Now() against the task's admission time plus its delay.
func WithDelaySource(source DelaySource) Option {
	return optionFunc(func(opts *trackerOptions) {
		opts.delaySource = source
	})
}

func defaultDelaySource() DelaySource {
	return func(task *Task) bool {
		return !time.Now().Before(task.admittedAt.Add(task.Delay))
	}
}

func resolveTrackerOptions(opts []Option) *trackerOptions {
	cfg := &trackerOptions{
		maxConcurrentBestEffortSequences: -1,
		logger:                           defaultLogger(),
		metrics:                          NoopMetricsSink{},
		delaySource:                      defaultDelaySource(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyTracker(cfg)
	}
	return cfg
}
