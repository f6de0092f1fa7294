// Package apitest runs an in-memory JSON document API for tests.
//
// Documents live under arbitrary paths and carry a "kind" and a "_self"
// link. Collections list their members in an "items" array and accept
// POSTs that create new members. Every write produces a fresh etag, and
// PATCH requires a matching If-Match header.
//
//	srv := apitest.New()
//	defer srv.Close()
//	srv.AddCollection("/widgets", "WidgetList")
//	srv.Put("/widgets/1", map[string]any{"kind": "Widget", "name": "a"})
//
// Faults can be injected with FailNext and DropHeader.
package apitest
