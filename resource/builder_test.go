package resource

import (
	"testing"

	"github.com/kbukum/resourcekit/errors"
)

func TestBuild_CreationPath(t *testing.T) {
	c, _ := newTestClient(t)
	r, err := c.Build(map[string]any{"kind": "Widget", "name": "a"}, "/widgets/1", "e1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, ok := r.(*Widget)
	if !ok {
		t.Fatalf("expected *Widget, got %T", r)
	}
	if w.Kind() != "Widget" || w.Location() != "/widgets/1" || w.ETag() != "e1" {
		t.Errorf("unexpected identity: %s %s %s", w.Kind(), w.Location(), w.ETag())
	}
	if w.Client() != c {
		t.Error("built resource should be bound to the client")
	}
	if got := w.GetString("name"); got != "a" {
		t.Errorf("expected name a, got %q", got)
	}
}

func TestBuild_ReusePath(t *testing.T) {
	c, _ := newTestClient(t)
	first, _ := c.Build(map[string]any{"kind": "Widget", "name": "a"}, "/widgets/1", "e1", nil)

	again, err := c.Build(map[string]any{"kind": "Widget", "name": "b"}, "/widgets/1", "e2", first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != first {
		t.Error("reuse path must return the same instance")
	}
	if first.ETag() != "e2" {
		t.Errorf("expected etag e2, got %s", first.ETag())
	}
	if v, _ := first.Get("name"); v != "b" {
		t.Errorf("expected name b, got %v", v)
	}
}

func TestBuild_KindChangeLeavesTargetUntouched(t *testing.T) {
	c, _ := newTestClient(t)
	w, _ := c.Build(map[string]any{"kind": "Widget", "name": "a"}, "/widgets/1", "e1", nil)

	_, err := c.Build(map[string]any{"kind": "Gadget", "name": "z"}, "/gadgets/1", "e9", w)
	if err == nil || err.Error() != "cannot change kind from Widget to Gadget" {
		t.Fatalf("expected kind change error, got %v", err)
	}
	if w.Kind() != "Widget" || w.Location() != "/widgets/1" || w.ETag() != "e1" {
		t.Errorf("target mutated: %s %s %s", w.Kind(), w.Location(), w.ETag())
	}
	if v, _ := w.Get("name"); v != "a" {
		t.Errorf("expected name a, got %v", v)
	}
}

func TestBuild_PartialUpdateWithoutKind(t *testing.T) {
	c, _ := newTestClient(t)
	w, _ := c.Build(map[string]any{"kind": "Widget", "name": "a", "count": 1}, "/widgets/1", "e1", nil)

	r, err := c.Build(map[string]any{"count": 2}, "", "e2", w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != w || w.Kind() != "Widget" {
		t.Error("expected in-place update keeping the kind")
	}
	if v, _ := w.Get("name"); v != "a" {
		t.Errorf("untouched key should survive, got %v", v)
	}
	if v, _ := w.Get("count"); v != 2 {
		t.Errorf("expected count 2, got %v", v)
	}
	if w.Location() != "/widgets/1" {
		t.Errorf("empty location argument must not clear location, got %s", w.Location())
	}
}

func TestBuild_AdoptsKindlessTarget(t *testing.T) {
	c, _ := newTestClient(t)
	e := &Entity{}
	r, err := c.Build(map[string]any{"kind": "Gadget"}, "/gadgets/1", "e1", e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != e || e.Kind() != "Gadget" {
		t.Errorf("expected target to take kind Gadget, got %q", e.Kind())
	}
	if e.Client() != c {
		t.Error("expected target bound to client")
	}
}

func TestBuild_Errors(t *testing.T) {
	c, _ := newTestClient(t)
	tests := []struct {
		name     string
		payload  map[string]any
		existing Resource
		want     string
	}{
		{"no kind, no target", map[string]any{"name": "a"}, nil, "no kind in payload"},
		{"no kind, kindless target", map[string]any{"name": "a"}, &Entity{}, "no kind in payload"},
		{"numeric kind", map[string]any{"kind": 5}, nil, "invalid kind in payload: 5"},
		{"empty kind", map[string]any{"kind": ""}, nil, "invalid kind in payload: "},
		{"unknown kind", map[string]any{"kind": "Gizmo"}, nil, "unknown kind: Gizmo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := c.Build(tc.payload, "/x", "e", tc.existing)
			if r != nil {
				t.Errorf("expected no resource, got %v", r)
			}
			if !errors.IsClassification(err) {
				t.Fatalf("expected classification error, got %v", err)
			}
			if err.Error() != tc.want {
				t.Errorf("expected %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestClient_New(t *testing.T) {
	c, _ := newTestClient(t)
	r, err := c.New("Widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind() != "Widget" || r.Location() != "" || r.ETag() != "" {
		t.Errorf("expected an unsynced Widget, got %s %q %q", r.Kind(), r.Location(), r.ETag())
	}
	if _, err := c.New("Gizmo"); !errors.IsClassification(err) {
		t.Errorf("expected unknown kind error, got %v", err)
	}
}
