package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one header line per record followed by an indented
// field list:
//
//	2026-01-02 15:04:05.000 INFO [compiler] story abc · scene s1 - scene compiled
//	    - nodes: 4
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	preset    []field
	prefix    string
	addSource bool
}

type field struct {
	key   string
	value slog.Value
}

// Keys too bulky for info-level console output.
var verboseKeys = map[string]bool{"script": true, "stack": true, "source": true}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, rec slog.Record) error {
	if !h.Enabled(context.Background(), rec.Level) {
		return nil
	}
	fields := append([]field(nil), h.preset...)
	rec.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, a)
		return true
	})
	fields = lastWins(fields)

	var (
		sb        strings.Builder
		component string
		subject   []string
	)
	body := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainValue(f.value)
			continue
		case FieldStoryID:
			subject = appendSubject(subject, "story", f.value)
		case FieldSceneID:
			subject = appendSubject(subject, "scene", f.value)
		}
		if rec.Level >= slog.LevelInfo && verboseKeys[f.key] {
			continue
		}
		body = append(body, f)
	}

	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(ts.Format(consoleTimeLayout))
	sb.WriteString(" " + levelName(rec.Level))
	if component != "" {
		sb.WriteString(" [" + component + "]")
	}
	if len(subject) > 0 {
		sb.WriteString(" " + strings.Join(subject, " · "))
	}
	msg := strings.TrimSpace(rec.Message)
	if msg == "" {
		msg = "(no message)"
	}
	sb.WriteString(" - " + msg)
	if h.addSource {
		if src := rec.Source(); src != nil {
			sb.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	sb.WriteByte('\n')
	for _, f := range body {
		sb.WriteString("    - " + f.key + ": " + renderValue(f.value) + "\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, a := range attrs {
		next.preset = appendAttr(next.preset, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func appendSubject(subject []string, label string, v slog.Value) []string {
	if id := plainValue(v); id != "" {
		return append(subject, label+" "+id)
	}
	return subject
}

// appendAttr flattens groups into dotted keys.
func appendAttr(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			dst = appendAttr(dst, inner, ga)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + a.Key, value: v})
}

// lastWins drops earlier duplicates of a key, keeping first-seen order.
func lastWins(fields []field) []field {
	pos := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if i, ok := pos[f.key]; ok {
			out[i] = f
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
