package resource

import (
	"maps"
	"strings"
)

// RetrieveHeaders returns the headers sent with a GET.
func RetrieveHeaders() map[string]string {
	return map[string]string{"Accept": mediaTypeJSON}
}

// UpdateHeaders returns the headers sent with a PATCH guarded by etag.
func UpdateHeaders(etag string) map[string]string {
	return map[string]string{
		"Accept":       mediaTypeJSON,
		"Content-Type": mediaTypeJSON,
		"If-Match":     etag,
	}
}

// DeleteHeaders returns the headers sent with a DELETE.
func DeleteHeaders() map[string]string {
	return map[string]string{"Accept": mediaTypeJSON}
}

// CreateHeaders returns the headers sent with a POST.
func CreateHeaders() map[string]string {
	return map[string]string{
		"Accept":       mediaTypeJSON,
		"Content-Type": mediaTypeJSON,
	}
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	headers map[string]string
}

// WithHeader sets a request header for one call, replacing the verb's
// default of the same name.
func WithHeader(name, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[name] = value
	}
}

// WithHeaders sets several request headers for one call.
func WithHeaders(h map[string]string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(h))
		}
		maps.Copy(o.headers, h)
	}
}

func mergeHeaders(base map[string]string, opts []CallOption) map[string]string {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	for name, value := range o.headers {
		for k := range base {
			if strings.EqualFold(k, name) {
				delete(base, k)
			}
		}
		base[name] = value
	}
	return base
}
