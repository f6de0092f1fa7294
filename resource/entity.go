package resource

import (
	"context"
	"fmt"

	"github.com/kbukum/resourcekit/errors"
)

// Entity is a single document. Embed it to give a kind its own Go type.
type Entity struct {
	Base
	related map[string]Resource
}

// Update sends the changed properties as a PATCH guarded by the current
// etag. The server response is merged back into the entity.
func (e *Entity) Update(ctx context.Context, opts ...CallOption) *Future[Resource] {
	if e.location == "" {
		return Failed[Resource](errors.Precondition("no location"))
	}
	if e.etag == "" {
		return Failed[Resource](errors.Precondition("no etag"))
	}
	if e.client == nil {
		return Failed[Resource](errUnbound)
	}
	return e.client.Update(ctx, e.location, e.etag, e.self.UpdateRepresentation(), e.self, opts...)
}

// Delete removes the entity on the server.
func (e *Entity) Delete(ctx context.Context, opts ...CallOption) *Future[Resource] {
	if e.location == "" {
		return Failed[Resource](errors.Precondition("no location"))
	}
	if e.client == nil {
		return Failed[Resource](errUnbound)
	}
	return e.client.Delete(ctx, e.location, e.self, opts...)
}

// Retrieve follows the URL held in the named property. The resolved
// resource is cached under name before the future completes.
func (e *Entity) Retrieve(ctx context.Context, name string, opts ...CallOption) (*Future[Resource], error) {
	v, ok := e.props[name]
	if !ok {
		return nil, errors.Misuse(fmt.Sprintf("property %s is not set", name))
	}
	url, ok := v.(string)
	if !ok || url == "" {
		return nil, errors.Misuse(fmt.Sprintf("property %s is not a url", name))
	}
	if e.client == nil {
		return nil, errUnbound
	}
	op := retrieveOp(url, nil)
	op.after = func(r Resource) error {
		if e.related == nil {
			e.related = make(map[string]Resource)
		}
		e.related[name] = r
		return nil
	}
	return e.client.call(ctx, op, opts), nil
}

// Related returns the resource last resolved for name.
func (e *Entity) Related(name string) (Resource, bool) {
	r, ok := e.related[name]
	return r, ok
}
