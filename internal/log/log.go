// Package log configures the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	charmlog "charm.land/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup installs a JSON slog handler writing to a rotating log file. It only
// takes effect the first time it is called.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 0,
			MaxAge:     30, // days
			Compress:   false,
		}
		slog.SetDefault(slog.New(newFileHandler(rotator, debug)))
		initialized.Store(true)
	})
}

// SetupStderr installs a human readable slog handler on stderr. Commands that
// do not own the terminal use it instead of [Setup].
func SetupStderr(debug bool) {
	initOnce.Do(func() {
		slog.SetDefault(slog.New(NewStderrHandler(os.Stderr, debug)))
		initialized.Store(true)
	})
}

// NewStderrHandler returns a charm log handler writing to w.
func NewStderrHandler(w io.Writer, debug bool) slog.Handler {
	level := charmlog.WarnLevel
	if debug {
		level = charmlog.DebugLevel
	}
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

func newFileHandler(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
}

// Initialized reports whether a logger has been installed.
func Initialized() bool {
	return initialized.Load()
}

// RecoverPanic recovers a panic in the calling goroutine, logs it, writes a
// panic report next to the working directory and runs cleanup. It must be
// deferred.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}

	stack := debug.Stack()
	slog.Error("Recovered from panic", "name", name, "panic", r)

	filename := fmt.Sprintf("crawlview-panic-%s-%s.log", name, time.Now().Format("20060102-150405"))
	if file, err := os.Create(filename); err == nil {
		fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
		fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
		fmt.Fprintf(file, "Stack trace:\n%s\n", stack)
		_ = file.Close()
	}

	if cleanup != nil {
		cleanup()
	}
}
