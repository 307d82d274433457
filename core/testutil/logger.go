package testutil

import (
	"fmt"
	"sync"

	"github.com/trezcool/schooldesk/core"
)

// Logger records log lines instead of printing them.
type Logger struct {
	mu    sync.Mutex
	Lines []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	l.Lines = append(l.Lines, fmt.Sprintf("%s: %s", level, msg))
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Contains reports whether a recorded line equals "<level>: <msg>".
func (l *Logger) Contains(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	want := fmt.Sprintf("%s: %s", level, msg)
	for _, line := range l.Lines {
		if line == want {
			return true
		}
	}
	return false
}
