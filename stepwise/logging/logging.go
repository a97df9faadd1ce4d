// Package logging provides category-gated structured log channels.
//
// A channel yields a logger only while its category is enabled, so hot
// paths can guard with
//
//	if log := logging.Step(); log != nil {
//		log.Debug("...", "pc", pc)
//	}
//
// and pay nothing when the category is off. Log output must never change
// behavior; callers only ever read the returned logger.
package logging

import (
	"log/slog"
	"strings"
	"sync/atomic"
)

// Category selects a log channel.
type Category uint32

const (
	// CategoryStep traces stepping decisions and queued step plans.
	CategoryStep Category = 1 << iota
	// CategoryEmulate traces instruction emulation.
	CategoryEmulate
)

var enabled atomic.Uint32

// Enable turns the given categories on, leaving others untouched.
func Enable(categories Category) {
	for {
		old := enabled.Load()
		if enabled.CompareAndSwap(old, old|uint32(categories)) {
			return
		}
	}
}

// Disable turns the given categories off.
func Disable(categories Category) {
	for {
		old := enabled.Load()
		if enabled.CompareAndSwap(old, old&^uint32(categories)) {
			return
		}
	}
}

// EnableNames enables categories by name ("step", "emulate", "all").
// Unknown names are ignored.
func EnableNames(names string) {
	for _, name := range strings.Split(names, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "step":
			Enable(CategoryStep)
		case "emulate":
			Enable(CategoryEmulate)
		case "all":
			Enable(CategoryStep | CategoryEmulate)
		}
	}
}

func channel(c Category, name string) *slog.Logger {
	if enabled.Load()&uint32(c) == 0 {
		return nil
	}
	return slog.Default().With("log", name)
}

// Step returns the stepping channel, or nil when disabled.
func Step() *slog.Logger {
	return channel(CategoryStep, "step")
}

// Emulate returns the emulation channel, or nil when disabled.
func Emulate() *slog.Logger {
	return channel(CategoryEmulate, "emulate")
}
