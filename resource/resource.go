package resource

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/copystructure"
	"github.com/mitchellh/mapstructure"

	"github.com/kbukum/resourcekit/errors"
)

// Reserved property keys. Keys starting with ReservedPrefix are never sent
// back to the server.
const (
	ReservedPrefix = "_"
	KeyKind        = "kind"
	KeyLocation    = "_location"
	KeySelf        = "_self"
	KeyItems       = "items"
)

// Resource is a kind-tagged document materialized from the API.
//
// Implementations embed Entity or Collection; the unexported method keeps
// the set of implementations inside that hierarchy.
type Resource interface {
	// Kind is the discriminator the resource was built or registered under.
	Kind() string
	// Location is the canonical URL, empty until the first successful call.
	Location() string
	// ETag is the concurrency token, empty until the first successful call.
	ETag() string
	// Snapshot returns a deep copy of the last payload received.
	Snapshot() map[string]any

	Get(key string) (any, bool)
	Set(key string, value any)
	Unset(key string)
	// Properties returns a shallow copy of the property store.
	Properties() map[string]any
	// Decode copies the properties into a struct using its json tags.
	Decode(out any) error

	// UpdateProperties merges payload into the properties and records it as
	// the new snapshot. Non-empty location and etag arguments override.
	UpdateProperties(location string, payload map[string]any, etag string) error
	// UpdateRepresentation returns the properties that changed since the
	// last snapshot, reserved keys excluded.
	UpdateRepresentation() map[string]any
	// Refresh retrieves the resource's own location into itself.
	Refresh(ctx context.Context, opts ...CallOption) *Future[Resource]

	base() *Base
}

// Base holds the state shared by every resource.
type Base struct {
	client *Client
	// self is the outermost value embedding this Base, used as the reuse
	// target so refreshes update the caller's value.
	self Resource

	kind     string
	location string
	etag     string
	props    map[string]any
	snapshot map[string]any
}

func (b *Base) base() *Base { return b }

func (b *Base) bind(c *Client, kind string, self Resource) {
	b.client = c
	b.self = self
	if b.kind == "" {
		b.kind = kind
	}
}

func (b *Base) Kind() string     { return b.kind }
func (b *Base) Location() string { return b.location }
func (b *Base) ETag() string     { return b.etag }

// Client returns the client the resource is bound to, or nil.
func (b *Base) Client() *Client { return b.client }

func (b *Base) Snapshot() map[string]any {
	if b.snapshot == nil {
		return nil
	}
	return mustCopy(b.snapshot)
}

func (b *Base) Get(key string) (any, bool) {
	v, ok := b.props[key]
	return v, ok
}

// GetString returns the property as a string, or "" if unset or not a string.
func (b *Base) GetString(key string) string {
	s, _ := b.props[key].(string)
	return s
}

func (b *Base) Set(key string, value any) {
	if b.props == nil {
		b.props = make(map[string]any)
	}
	b.props[key] = value
}

func (b *Base) Unset(key string) {
	delete(b.props, key)
}

func (b *Base) Properties() map[string]any {
	out := make(map[string]any, len(b.props))
	for k, v := range b.props {
		out[k] = v
	}
	return out
}

// Keys returns the property keys in sorted order.
func (b *Base) Keys() []string {
	keys := make([]string, 0, len(b.props))
	for k := range b.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Base) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		Squash:           true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(b.props); err != nil {
		return fmt.Errorf("decode %s: %w", b.kind, err)
	}
	return nil
}

func (b *Base) UpdateProperties(location string, payload map[string]any, etag string) error {
	if payload != nil {
		snap, err := copystructure.Copy(payload)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", b.kind, err)
		}
		if b.props == nil {
			b.props = make(map[string]any, len(payload))
		}
		for k, v := range payload {
			b.props[k] = v
		}
		if loc, ok := payload[KeyLocation].(string); ok && loc != "" {
			b.location = loc
		} else if self, ok := payload[KeySelf].(string); ok && self != "" {
			b.location = self
		}
		b.snapshot = snap.(map[string]any)
	}
	if location != "" {
		b.location = location
	}
	if etag != "" {
		b.etag = etag
	}
	return nil
}

func (b *Base) UpdateRepresentation() map[string]any {
	out := make(map[string]any)
	for k, v := range b.props {
		if strings.HasPrefix(k, ReservedPrefix) {
			continue
		}
		old, seen := b.snapshot[k]
		if !seen || !cmp.Equal(v, old) {
			out[k] = v
		}
	}
	if b.snapshot == nil && b.kind != "" {
		if _, ok := out[KeyKind]; !ok {
			out[KeyKind] = b.kind
		}
	}
	return out
}

func (b *Base) Refresh(ctx context.Context, opts ...CallOption) *Future[Resource] {
	if b.location == "" {
		return Failed[Resource](errors.Precondition("no location"))
	}
	if b.client == nil {
		return Failed[Resource](errUnbound)
	}
	return b.client.Retrieve(ctx, b.location, b.self, opts...)
}

var errUnbound = errors.Misuse("resource is not bound to a client")

func mustCopy(m map[string]any) map[string]any {
	c, err := copystructure.Copy(m)
	if err != nil {
		panic(err)
	}
	return c.(map[string]any)
}
