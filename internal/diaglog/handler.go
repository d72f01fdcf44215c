// Package diaglog keeps recent warning and error log records in memory so the
// UI can show them without reading log files.
package diaglog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// EntryFunc receives records at or above the tee threshold. group is the
// dot-separated slog group of the handler that produced the record.
type EntryFunc func(ts time.Time, level slog.Level, msg string, group string)

// TeeHandler forwards every record to base and copies records at or above
// minLevel to a callback.
type TeeHandler struct {
	base     slog.Handler
	callback EntryFunc
	minLevel slog.Level
	group    string
}

// NewTeeHandler wraps base. A nil callback disables the tee.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, callback EntryFunc) *TeeHandler {
	return &TeeHandler{
		base:     base,
		callback: callback,
		minLevel: minLevel,
	}
}

// Enabled defers to base; minLevel only gates the callback.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle writes to base first and then runs the callback even when base
// failed. The base error is returned.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)
	if h.callback != nil && record.Level >= h.minLevel {
		h.invoke(record)
	}
	return err
}

func (h *TeeHandler) invoke(record slog.Record) {
	defer func() {
		if r := recover(); r != nil {
			// stderr, not slog: logging here would re-enter this handler.
			fmt.Fprintf(os.Stderr, "[diaglog] callback panicked: %v\n%s\n", r, debug.Stack())
		}
	}()
	h.callback(record.Time, record.Level, record.Message, h.group)
}

func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.base = h.base.WithAttrs(attrs)
	return &clone
}

func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.base = h.base.WithGroup(name)
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}
