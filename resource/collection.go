package resource

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/resourcekit/errors"
)

// Collection is a document whose items array is materialized as an index
// of resources keyed by location.
type Collection struct {
	Base
	items map[string]Resource
}

// UpdateProperties rebuilds the item index from the payload's items array
// before merging the payload. Nothing changes when any item fails.
func (c *Collection) UpdateProperties(location string, payload map[string]any, etag string) error {
	var items map[string]Resource
	if raw, ok := payload[KeyItems]; ok {
		built, err := c.buildItems(raw)
		if err != nil {
			return err
		}
		items = built
	}
	if err := c.Base.UpdateProperties(location, payload, etag); err != nil {
		return err
	}
	if items != nil {
		c.items = items
	}
	return nil
}

func (c *Collection) buildItems(raw any) (map[string]Resource, error) {
	items := make(map[string]Resource)
	if raw == nil {
		return items, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeClassification, fmt.Sprintf("items is not an array: %T", raw))
	}
	if c.client == nil && len(list) > 0 {
		return nil, errUnbound
	}

	var result *multierror.Error
	for i, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			result = multierror.Append(result,
				errors.New(errors.ErrCodeClassification, fmt.Sprintf("item %d is not an object", i)))
			continue
		}
		r, err := c.client.Build(obj, "", "", nil)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		loc := r.Location()
		if loc == "" {
			result = multierror.Append(result, errors.NoItemLocation(i))
			continue
		}
		if _, dup := items[loc]; dup {
			result = multierror.Append(result, errors.Duplicate(loc))
			continue
		}
		items[loc] = r
	}
	if result != nil {
		result.ErrorFormat = listFormat
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return items, nil
}

// Create posts e to the collection. On success e holds the server's view
// and, when the collection has an item index, is added to it.
func (c *Collection) Create(ctx context.Context, e Resource, opts ...CallOption) (*Future[Resource], error) {
	if c.location == "" {
		return nil, errors.Misuse("collection has no location")
	}
	if isNil(e) {
		return nil, errors.Misuse("nil entity")
	}
	if _, ok := e.Get(KeySelf); ok {
		return nil, errors.Misuse("entity already has a _self reference")
	}
	if c.client == nil {
		return nil, errUnbound
	}
	c.client.adopt(e, "")
	op := createOp(c.location, e.UpdateRepresentation(), e)
	op.after = func(r Resource) error {
		if c.items == nil {
			return nil
		}
		loc := r.Location()
		if _, dup := c.items[loc]; dup {
			return errors.Duplicate(loc)
		}
		c.items[loc] = r
		return nil
	}
	return c.client.call(ctx, op, opts), nil
}

// Items returns a copy of the item index.
func (c *Collection) Items() map[string]Resource {
	out := make(map[string]Resource, len(c.items))
	for k, v := range c.items {
		out[k] = v
	}
	return out
}

// Locations returns the item locations in sorted order.
func (c *Collection) Locations() []string {
	locs := make([]string, 0, len(c.items))
	for k := range c.items {
		locs = append(locs, k)
	}
	sort.Strings(locs)
	return locs
}

func (c *Collection) Item(location string) (Resource, bool) {
	r, ok := c.items[location]
	return r, ok
}

func (c *Collection) Len() int { return len(c.items) }

func listFormat(es []error) string {
	if len(es) == 1 {
		return es[0].Error()
	}
	msgs := make([]string, len(es))
	for i, err := range es {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d item errors: %s", len(es), strings.Join(msgs, "; "))
}
