package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// SanitizingHandler wraps another handler and redacts secrets from the
// message and string attributes of every record.
type SanitizingHandler struct {
	handler   slog.Handler
	sanitizer *Sanitizer
}

// NewSanitizingHandler creates a new sanitizing handler.
func NewSanitizingHandler(handler slog.Handler, sanitizer *Sanitizer) *SanitizingHandler {
	return &SanitizingHandler{
		handler:   handler,
		sanitizer: sanitizer,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record and passes it to the underlying handler.
func (h *SanitizingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, h.sanitizer.Sanitize(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, clean)
}

// WithAttrs returns a new handler with sanitized attrs.
func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		clean[i] = h.sanitizeAttr(attr)
	}
	return &SanitizingHandler{
		handler:   h.handler.WithAttrs(clean),
		sanitizer: h.sanitizer,
	}
}

// WithGroup returns a new handler with a group.
func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{
		handler:   h.handler.WithGroup(name),
		sanitizer: h.sanitizer,
	}
}

func (h *SanitizingHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.sanitizer.Sanitize(a.Value.String()))
	case slog.KindGroup:
		attrs := a.Value.Group()
		clean := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			clean[i] = h.sanitizeAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, h.sanitizer.Sanitize(err.Error()))
		}
		return a
	default:
		return a
	}
}

// attrWriter renders attributes as key=value pairs with group prefixes.
type attrWriter struct {
	attrs  []slog.Attr
	groups []string
}

func (aw attrWriter) with(attrs []slog.Attr) attrWriter {
	merged := make([]slog.Attr, 0, len(aw.attrs)+len(attrs))
	merged = append(merged, aw.attrs...)
	merged = append(merged, attrs...)
	return attrWriter{attrs: merged, groups: aw.groups}
}

func (aw attrWriter) withGroup(name string) attrWriter {
	groups := make([]string, 0, len(aw.groups)+1)
	groups = append(groups, aw.groups...)
	groups = append(groups, name)
	return attrWriter{attrs: aw.attrs, groups: groups}
}

func (aw attrWriter) write(b *strings.Builder, r slog.Record, keyFmt string) {
	for _, a := range aw.attrs {
		aw.writeAttr(b, a, keyFmt)
	}
	r.Attrs(func(a slog.Attr) bool {
		aw.writeAttr(b, a, keyFmt)
		return true
	})
}

func (aw attrWriter) writeAttr(b *strings.Builder, a slog.Attr, keyFmt string) {
	if a.Value.Kind() == slog.KindGroup {
		for _, inner := range a.Value.Group() {
			aw.writeAttr(b, inner, keyFmt)
		}
		return
	}
	key := a.Key
	if len(aw.groups) > 0 {
		key = strings.Join(aw.groups, ".") + "." + key
	}
	b.WriteByte(' ')
	fmt.Fprintf(b, keyFmt, key)
	b.WriteByte('=')
	fmt.Fprintf(b, "%v", a.Value.Any())
}

// PrettyHandler provides colorized console output for TTY.
type PrettyHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
	aw    attrWriter
}

// NewPrettyHandler creates a new pretty handler.
func NewPrettyHandler(w io.Writer, level slog.Level) *PrettyHandler {
	return &PrettyHandler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes the log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	const (
		colorReset = "\033[0m"
		colorCyan  = "\033[36m"
	)

	var b strings.Builder
	b.WriteString(r.Time.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(prettyLevel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	h.aw.write(&b, r, colorCyan+"%s"+colorReset)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs returns a new handler with attrs.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{mu: h.mu, w: h.w, level: h.level, aw: h.aw.with(attrs)}
}

// WithGroup returns a new handler with a group.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{mu: h.mu, w: h.w, level: h.level, aw: h.aw.withGroup(name)}
}

func prettyLevel(level slog.Level) string {
	const (
		colorReset  = "\033[0m"
		colorRed    = "\033[31m"
		colorYellow = "\033[33m"
		colorBlue   = "\033[34m"
		colorGray   = "\033[90m"
	)

	switch level {
	case slog.LevelDebug:
		return colorGray + "DBG" + colorReset
	case slog.LevelInfo:
		return colorBlue + "INF" + colorReset
	case slog.LevelWarn:
		return colorYellow + "WRN" + colorReset
	case slog.LevelError:
		return colorRed + "ERR" + colorReset
	default:
		return level.String()
	}
}

// LineHandler writes plain "<ISO time> [LEVEL] message key=value" lines,
// the format of the durable log file.
type LineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
	aw    attrWriter
}

// NewLineHandler creates a new line handler.
func NewLineHandler(w io.Writer, level slog.Level) *LineHandler {
	return &LineHandler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes the log record.
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteString(" [")
	b.WriteString(r.Level.String())
	b.WriteString("] ")
	b.WriteString(r.Message)
	h.aw.write(&b, r, "%s")
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs returns a new handler with attrs.
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LineHandler{mu: h.mu, w: h.w, level: h.level, aw: h.aw.with(attrs)}
}

// WithGroup returns a new handler with a group.
func (h *LineHandler) WithGroup(name string) slog.Handler {
	return &LineHandler{mu: h.mu, w: h.w, level: h.level, aw: h.aw.withGroup(name)}
}

// teeHandler fans each record out to several handlers.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
