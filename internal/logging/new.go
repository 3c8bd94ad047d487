package logging

import (
	"io"
	"log/slog"

	"go.uber.org/zap"
)

// Backends accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New returns a Logger writing to w. Unknown backends fall back to slog.
func New(w io.Writer, backend, format, level string) Logger {
	if backend == BackendZap {
		return NewZapLogger(zap.New(NewZapCore(w, format, level)))
	}
	return NewSlogLogger(slog.New(NewSlogHandler(w, format, level)))
}
