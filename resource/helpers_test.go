package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/resourcekit/transport"
)

// scriptedTransport replays queued responses and records every request.
type scriptedTransport struct {
	mu        sync.Mutex
	responses []scripted
	requests  []transport.Request
}

type scripted struct {
	resp *transport.Response
	err  error
}

func (s *scriptedTransport) push(resp *transport.Response, err error) *scriptedTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, scripted{resp: resp, err: err})
	return s
}

func (s *scriptedTransport) Do(_ context.Context, req transport.Request) (*transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("no scripted response for %s %s", req.Method, req.URL)
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next.resp, next.err
}

func (s *scriptedTransport) calls() []transport.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.Request(nil), s.requests...)
}

func (s *scriptedTransport) last(t *testing.T) transport.Request {
	t.Helper()
	reqs := s.calls()
	if len(reqs) == 0 {
		t.Fatal("expected a request")
	}
	return reqs[len(reqs)-1]
}

// okJSON builds a valid success response. locHeader is "Content-Location"
// or "Location".
func okJSON(status int, locHeader, location, etag, body string) *transport.Response {
	return &transport.Response{
		StatusCode: status,
		Headers: map[string]string{
			locHeader:      location,
			"Etag":         etag,
			"Content-Type": "application/json",
		},
		Body: []byte(body),
	}
}

func okDoc(location, etag, body string) *transport.Response {
	return okJSON(200, "Content-Location", location, etag, body)
}

type Widget struct {
	Entity
}

type widgetFields struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister("Widget", func() Resource { return &Widget{} })
	if err := reg.RegisterEntity("Gadget"); err != nil {
		t.Fatalf("register Gadget: %v", err)
	}
	if err := reg.RegisterCollection("WidgetList"); err != nil {
		t.Fatalf("register WidgetList: %v", err)
	}
	return reg
}

func newTestClient(t *testing.T) (*Client, *scriptedTransport) {
	t.Helper()
	tr := &scriptedTransport{}
	return NewClient(tr, testRegistry(t)), tr
}

func await(t *testing.T, f *Future[Resource]) (Resource, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := f.Await(ctx)
	if err == context.DeadlineExceeded {
		t.Fatal("future did not complete")
	}
	return r, err
}

func mustAwait(t *testing.T, f *Future[Resource]) Resource {
	t.Helper()
	r, err := await(t, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func decodeBody(t *testing.T, req transport.Request) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(req.Body, &m); err != nil {
		t.Fatalf("request body is not a json object: %v (%s)", err, req.Body)
	}
	return m
}

var transportResponse412 = transport.Response{StatusCode: 412, Body: []byte("stale etag")}
