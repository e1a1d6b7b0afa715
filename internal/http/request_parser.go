// Package http provides the estimate API server and its handlers.
//
// This file implements parsing of estimate request bodies. Both JSON and
// form-encoded bodies are accepted so the API can be driven by curl, plain
// HTML forms and programmatic clients alike.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"it10bb/internal/intake"
)

// maxBodyBytes bounds estimate request bodies.
const maxBodyBytes = 64 << 10

// ErrMalformedBody is returned when the body is neither valid JSON nor form data.
var ErrMalformedBody = errors.New("malformed request body")

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") || strings.Contains(p.contentType, "json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// First returns the first non-empty value among keys.
func (p *RequestBodyParser) First(keys ...string) string {
	for _, k := range keys {
		if v := p.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// estimateRequest is a parsed POST /estimates body.
type estimateRequest struct {
	Raw       intake.RawProfile
	Reference string
	Export    bool
}

// parseEstimateRequest reads the household answers from the body. The total
// may be sent as "total_expense" or "total"; export may come from the body
// or the query string.
func parseEstimateRequest(r *http.Request) (estimateRequest, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return estimateRequest{}, errors.Join(ErrMalformedBody, err)
	}

	req := estimateRequest{
		Raw: intake.RawProfile{
			Total:            p.First("total_expense", "total"),
			Location:         p.Get("location"),
			FamilySize:       p.Get("family_size"),
			HasKids:          p.Get("has_kids"),
			OwnHome:          p.Get("own_home"),
			HomeSupportStaff: p.Get("home_support_staff"),
			Mode:             p.Get("mode"),
		},
		Reference: p.Get("reference"),
		Export:    parseBoolParam(r, "export") || intake.YesNo(p.Get("export")),
	}
	return req, nil
}
