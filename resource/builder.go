package resource

import (
	"github.com/kbukum/resourcekit/errors"
)

// Build turns a decoded payload into a resource. With an existing resource
// the payload is merged into it; otherwise a new resource is made from the
// factory registered for the payload's kind.
func (c *Client) Build(payload map[string]any, location, etag string, existing Resource) (Resource, error) {
	if isNil(existing) {
		existing = nil
	}

	raw, hasKind := payload[KeyKind]
	if !hasKind {
		if existing == nil || existing.Kind() == "" {
			return nil, errors.NoKind()
		}
		c.adopt(existing, "")
		if err := existing.UpdateProperties(location, payload, etag); err != nil {
			return nil, err
		}
		return existing, nil
	}

	kind, ok := raw.(string)
	if !ok || kind == "" {
		return nil, errors.InvalidKind(raw)
	}

	if existing != nil {
		if cur := existing.Kind(); cur != "" && cur != kind {
			return nil, errors.KindChange(cur, kind)
		}
		c.adopt(existing, "")
		if err := existing.UpdateProperties(location, payload, etag); err != nil {
			return nil, err
		}
		if b := existing.base(); b.kind == "" {
			b.kind = kind
		}
		return existing, nil
	}

	factory, ok := c.registry.Lookup(kind)
	if !ok {
		return nil, errors.UnknownKind(kind)
	}
	r := factory()
	c.adopt(r, kind)
	if err := r.UpdateProperties(location, payload, etag); err != nil {
		return nil, err
	}
	return r, nil
}

// New returns an unsynced resource of kind bound to c, ready to be passed
// to Collection.Create.
func (c *Client) New(kind string) (Resource, error) {
	factory, ok := c.registry.Lookup(kind)
	if !ok {
		return nil, errors.UnknownKind(kind)
	}
	r := factory()
	c.adopt(r, kind)
	return r, nil
}

func (c *Client) adopt(r Resource, kind string) {
	b := r.base()
	if b.client == nil || b.self == nil {
		b.bind(c, kind, r)
	}
}
