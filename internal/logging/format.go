package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05.000"

// renderValue formats a field value for console output. Strings containing
// whitespace or quotes are quoted; durations longer than a millisecond are
// rounded to it.
func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		d := v.Duration()
		if d > time.Millisecond {
			d = d.Round(time.Millisecond)
		}
		return d.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return strconv.Quote(err.Error())
		}
		if s, ok := v.Any().(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("%v", v.Any())
	default:
		return v.String()
	}
}

// plainValue is renderValue without quoting, used for header fields.
func plainValue(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return strings.TrimSpace(v.String())
	}
	return renderValue(v)
}
