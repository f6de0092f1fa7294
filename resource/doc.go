// Package resource materializes kind-tagged, etag-versioned JSON documents
// served by a REST API into typed Go values.
//
// A Client pairs a Transport with a Registry of kinds. Every network verb
// returns a *Future at once and completes it from a goroutine with either a
// resource or an *errors.Error, never both:
//
//	reg := resource.NewRegistry()
//	reg.MustRegister("Widget", func() resource.Resource { return &Widget{} })
//	reg.MustRegister("WidgetList", func() resource.Resource { return &resource.Collection{} })
//
//	c := resource.NewClient(adapter, reg, resource.WithLogger(log))
//	r, err := c.Retrieve(ctx, "/widgets/1", nil).Await(ctx)
//
// Responses are interpreted strictly: a 200/201 status, a location header,
// an etag and a JSON content type are required, and the payload's "kind"
// selects the Go type. Retrieving into an existing resource (Refresh,
// Update, Delete) mutates it in place, so references held elsewhere stay
// valid.
//
// Local state is tracked per property: Set changes a value, and
// UpdateRepresentation returns only the keys that differ from the last
// server snapshot. Entity.Update sends that diff as a PATCH guarded by
// If-Match.
//
// Resources are not safe for concurrent use. Do not touch a resource while
// an operation on it is outstanding; completion of its future orders the
// goroutine's writes before anything the caller does afterwards.
package resource
