package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/resourcekit/errors"
	"github.com/kbukum/resourcekit/logger"
	"github.com/kbukum/resourcekit/observability"
	"github.com/kbukum/resourcekit/transport"
)

// Transport sends one HTTP request. *transport.Adapter implements it.
type Transport interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Verb names used in spans, logs and metrics.
const (
	VerbRetrieve = "retrieve"
	VerbUpdate   = "update"
	VerbDelete   = "delete"
	VerbCreate   = "create"
)

// Client is the entry point of the SDK. It is safe for concurrent use;
// the resources it returns are not.
type Client struct {
	transport Transport
	registry  *Registry
	log       *logger.Logger
	metrics   *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Calls log at debug level and failures at warn.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log.WithComponent("resource")
		}
	}
}

// WithMetrics records per-call metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client. A nil registry is replaced by an empty one.
func NewClient(t Transport, reg *Registry, opts ...Option) *Client {
	if reg == nil {
		reg = NewRegistry()
	}
	c := &Client{
		transport: t,
		registry:  reg,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the kind registry.
func (c *Client) Registry() *Registry { return c.registry }

// Retrieve GETs url. With a non-nil target the payload is merged into it;
// otherwise a new resource is built from the payload's kind.
func (c *Client) Retrieve(ctx context.Context, url string, target Resource, opts ...CallOption) *Future[Resource] {
	return c.call(ctx, retrieveOp(url, target), opts)
}

// Update PATCHes changes to url guarded by etag.
func (c *Client) Update(ctx context.Context, url, etag string, changes map[string]any, target Resource, opts ...CallOption) *Future[Resource] {
	if changes == nil {
		changes = map[string]any{}
	}
	return c.call(ctx, operation{
		verb:           VerbUpdate,
		method:         http.MethodPatch,
		url:            url,
		headers:        UpdateHeaders(etag),
		body:           changes,
		locationHeader: headerContentLocation,
		target:         target,
	}, opts)
}

// Delete DELETEs url. The server's final representation is returned.
func (c *Client) Delete(ctx context.Context, url string, target Resource, opts ...CallOption) *Future[Resource] {
	return c.call(ctx, operation{
		verb:           VerbDelete,
		method:         http.MethodDelete,
		url:            url,
		headers:        DeleteHeaders(),
		locationHeader: headerContentLocation,
		target:         target,
	}, opts)
}

// Create POSTs body to url. The created resource's location comes from
// the Location header.
func (c *Client) Create(ctx context.Context, url string, body map[string]any, target Resource, opts ...CallOption) *Future[Resource] {
	return c.call(ctx, createOp(url, body, target), opts)
}

// RetrieveAs retrieves url and asserts the result to T.
func RetrieveAs[T Resource](ctx context.Context, c *Client, url string, opts ...CallOption) (T, error) {
	var zero T
	r, err := c.Retrieve(ctx, url, nil, opts...).Await(ctx)
	if err != nil {
		return zero, err
	}
	t, ok := r.(T)
	if !ok {
		return zero, errors.New(errors.ErrCodeClassification,
			fmt.Sprintf("resource at %s is %s (%T), not %T", url, r.Kind(), r, zero))
	}
	return t, nil
}

type operation struct {
	verb           string
	method         string
	url            string
	headers        map[string]string
	body           map[string]any
	locationHeader string
	target         Resource
	// after runs on success before the future completes. An error fails
	// the call.
	after func(Resource) error
}

func retrieveOp(url string, target Resource) operation {
	return operation{
		verb:           VerbRetrieve,
		method:         http.MethodGet,
		url:            url,
		headers:        RetrieveHeaders(),
		locationHeader: headerContentLocation,
		target:         target,
	}
}

func createOp(url string, body map[string]any, target Resource) operation {
	if body == nil {
		body = map[string]any{}
	}
	return operation{
		verb:           VerbCreate,
		method:         http.MethodPost,
		url:            url,
		headers:        CreateHeaders(),
		body:           body,
		locationHeader: headerLocation,
		target:         target,
	}
}

func (c *Client) call(ctx context.Context, op operation, opts []CallOption) *Future[Resource] {
	req := transport.Request{
		Method:  op.method,
		URL:     op.url,
		Headers: mergeHeaders(op.headers, opts),
	}
	if op.body != nil {
		body, err := json.Marshal(op.body)
		if err != nil {
			return Failed[Resource](errors.Misuse(fmt.Sprintf("encode %s body: %v", op.verb, err)).WithCause(err))
		}
		req.Body = body
	}

	f := newFuture[Resource]()
	go func() {
		f.complete(c.execute(ctx, op, req))
	}()
	return f
}

// execute runs one call inside its span. The span ends before the future
// completes.
func (c *Client) execute(ctx context.Context, op operation, req transport.Request) (Resource, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "resource."+op.verb, trace.WithAttributes(
		attribute.String(observability.AttrVerb, op.verb),
		attribute.String(observability.AttrMethod, op.method),
		attribute.String(observability.AttrURL, op.url),
	))
	defer span.End()

	r, err := c.run(ctx, op, req)
	c.observe(ctx, op, r, err, time.Since(start))
	return r, err
}

func (c *Client) run(ctx context.Context, op operation, req transport.Request) (r Resource, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, errors.New(errors.ErrCodeClassification, fmt.Sprintf("%s %s: %v", op.verb, op.url, p))
		}
	}()

	resp, terr := c.transport.Do(ctx, req)
	if resp != nil {
		observability.SetSpanAttribute(ctx, observability.AttrStatus, resp.StatusCode)
	}
	r, err = c.Interpret(resp, terr, op.url, op.locationHeader, op.target)
	if err != nil {
		return nil, err
	}
	if op.after != nil {
		if err := op.after(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (c *Client) observe(ctx context.Context, op operation, r Resource, err error, d time.Duration) {
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldOperation, op.verb,
		logger.FieldMethod, op.method,
		logger.FieldURL, op.url,
	), d)
	log := c.log.WithContext(ctx)

	if err != nil {
		code := "UNKNOWN"
		if e, ok := errors.As(err); ok {
			code = string(e.Code)
		}
		fields[logger.FieldCode] = code
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, code)
		observability.SetSpanError(ctx, err)
		c.metrics.RecordCall(ctx, op.verb, kindOf(op.target), "error", d)
		c.metrics.RecordError(ctx, op.verb, code)
		log.Warn("resource call failed", logger.MergeWithError(fields, err))
		return
	}

	fields[logger.FieldKind] = r.Kind()
	fields[logger.FieldLocation] = r.Location()
	fields[logger.FieldETag] = r.ETag()
	observability.SetSpanAttribute(ctx, observability.AttrKind, r.Kind())
	observability.SetSpanAttribute(ctx, observability.AttrLocation, r.Location())
	c.metrics.RecordCall(ctx, op.verb, r.Kind(), "ok", d)
	log.Debug("resource call", fields)
}

func kindOf(r Resource) string {
	if isNil(r) {
		return ""
	}
	return r.Kind()
}
