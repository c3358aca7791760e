// Package helpers provides small shared utilities used across the
// notification pipeline.
package helpers

import (
	"io"
	"log/slog"
)

// NewNoopLogger returns a logger that discards everything written to it.
func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Ptr returns a pointer to the value passed as an argument.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens the given string to the specified length, appending "..." if truncation occurs.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
