// Package backend defines the display surface a stepping session reports
// stops to. Backends render trace snapshots; they never drive execution.
package backend

import "github.com/stepwisedbg/go-stepwise/stepwise/debug"

// Backend is a complete trace display (terminal view, plain writer, ...).
type Backend interface {
	// Init configures the backend. Required before the first Update.
	Init(config Config) error

	// Update renders one stop. Returning quit asks the session loop to
	// wind down early (e.g. the user closed the view).
	Update(data *debug.TraceData) (quit bool, err error)

	// Cleanup releases resources on shutdown.
	Cleanup() error
}

// Config holds backend configuration.
type Config struct {
	Title    string
	Provider debug.Provider
}
