package tasktracker

import "github.com/joeycumines/logiface"

// nopWriter discards everything written to it, used to silence the
// tracker's default logger during tests so `go test -v` output isn't
// dominated by admission-rejected/contract-violation log lines that are the
// very thing under test.
type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// discardLevel disables logging entirely; tests that want to assert on log
// output construct their own NewLogger with a bytes.Buffer instead.
const discardLevel = logiface.LevelDisabled

func quietLogger() *Logger {
	return NewLogger(nopWriter{}, discardLevel)
}
