package taskgraph

import "log/slog"

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

// NullLogger returns a logger that discards everything. It is the default
// for schedulers constructed without WithLogger or WithLogr.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nullWriter{}, nil))
}
