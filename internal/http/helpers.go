package http

import (
	"net/http"
	"strconv"
	"strings"

	"it10bb/internal/render"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// parseBoolParam reads a query flag such as ?export=true. Unparseable values
// count as false.
func parseBoolParam(r *http.Request, name string) bool {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// parseFormat returns the requested output format, defaulting to JSON.
func parseFormat(r *http.Request) (string, bool) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		return render.FormatJSON, true
	}
	return format, render.ValidFormat(format)
}

func contentType(format string) string {
	switch format {
	case render.FormatYAML:
		return "application/yaml; charset=utf-8"
	case render.FormatTable:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}
