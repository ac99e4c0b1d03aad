// Package pkg provides shared utilities for the usbtap interrupt core.
//
// This package contains common functionality used across the classifier,
// the event queue, and the hardware layer, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogError(pkg.ComponentQueue, "sub-queue overflow", "queue", "setup")
//
// Records below the configured level are discarded before any attribute
// slice is built, so logging calls left in the interrupt epilogue cost a
// lock and a level comparison when disabled.
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrQueueFull) {
//	    // count the dropped event
//	}
package pkg
