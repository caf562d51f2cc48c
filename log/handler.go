package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// slogLevel maps a slog.Level onto the package's own LogLevel, the level
// vocabulary LogFormatter implementations render.
func slogLevel(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DEBUG
	case l < slog.LevelWarn:
		return INFO
	case l < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}

// FormatterHandler adapts a LogFormatter to slog.Handler, so callers can
// pick one of TextFormatter/JSONFormatter/ColorFormatter as the rendering
// for log.New/log.NewWithHandler the same way they'd pick one of slog's
// own built-in handlers.
type FormatterHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	formatter LogFormatter
	level     slog.Level
	attrs     []slog.Attr
	groups    []string
}

// NewFormatterHandler returns a handler writing formatter-rendered lines to
// w, filtering out records below level.
func NewFormatterHandler(w io.Writer, formatter LogFormatter, level slog.Level) *FormatterHandler {
	return &FormatterHandler{mu: &sync.Mutex{}, w: w, formatter: formatter, level: level}
}

// Enabled reports whether level passes this handler's configured floor.
func (h *FormatterHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle renders r through the configured formatter and writes the result to w.
func (h *FormatterHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[h.fieldKey(a.Key)] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[h.fieldKey(a.Key)] = a.Value.Any()
		return true
	})

	line := h.formatter.Format(LogEntry{
		Timestamp: r.Time,
		Level:     slogLevel(r.Level),
		Message:   r.Message,
		Fields:    fields,
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

// WithAttrs returns a derived handler that includes attrs on every future
// record.
func (h *FormatterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup returns a derived handler that namespaces future attrs under name.
func (h *FormatterHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *FormatterHandler) fieldKey(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	prefixed := key
	for i := len(h.groups) - 1; i >= 0; i-- {
		prefixed = h.groups[i] + "." + prefixed
	}
	return prefixed
}
