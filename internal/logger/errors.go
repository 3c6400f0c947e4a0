package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("log.appName must be set, every GoEventHub line carries it as the app field")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("log.serviceName must be set, it labels the log_statements_total metric")
)

var (
	// lostEvents counts log events no writer accepted since start.
	lostEvents atomic.Uint64 //nolint:gochecknoglobals

	// errorOutput receives the notice about a lost event. Swapped in tests.
	errorOutput io.Writer = os.Stderr //nolint:gochecknoglobals
)

// ErrorHandler is installed as zerolog.ErrorHandler by Init. It is called when a log line
// could not be written, for example because the log disk is full, and must never log itself.
func ErrorHandler(err error) {
	n := lostEvents.Add(1)

	if lost != nil {
		lost.Inc()
	}

	_, _ = fmt.Fprintf(errorOutput, "goeventhub: log event %d lost: %v\n", n, err)
}

// LostEvents returns how many log events were dropped because writing them failed.
func LostEvents() uint64 {
	return lostEvents.Load()
}
