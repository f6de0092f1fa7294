package transport

import (
	"net/http"
	"strings"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// URL is absolute, or relative to Config.BaseURL.
	URL     string
	Headers map[string]string
	Body    []byte
}

// Header returns the request header name, matched case-insensitively.
func (r Request) Header(name string) string {
	return lookup(r.Headers, name)
}

// Idempotent reports whether the method may be sent twice safely.
func (r Request) Idempotent() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodDelete, http.MethodPut:
		return true
	}
	return false
}

// Response is the raw result of an HTTP exchange.
type Response struct {
	StatusCode int
	// Headers hold the first value of each header under its canonical name.
	Headers map[string]string
	Body    []byte
}

// Header returns the header value, matched case-insensitively, or "".
func (r *Response) Header(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Lookup returns the header value and whether it was present.
func (r *Response) Lookup(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	if v, ok := r.Headers[http.CanonicalHeaderKey(name)]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func lookup(h map[string]string, name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
