package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/resourcekit/logger"
)

const contentTypeJSON = "application/json"

type document struct {
	body map[string]any
	etag string
}

type collection struct {
	kind    string
	etag    string
	members []string
	next    int
}

// Server is a fake resource API. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	engine *gin.Engine
	log    *logger.Logger

	mu          sync.Mutex
	docs        map[string]*document
	collections map[string]*collection
	failures    []int
	dropped     map[string]bool
	requests    int
	methods     map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs each request at debug level.
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log.WithComponent("apitest")
		}
	}
}

// New starts a server. Close it when done.
func New(opts ...Option) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		engine:      gin.New(),
		log:         logger.Nop(),
		docs:        make(map[string]*document),
		collections: make(map[string]*collection),
		dropped:     make(map[string]bool),
		methods:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(s.recovery(), s.track(), s.inject())
	s.engine.Any("/*path", s.handle)
	s.Server = httptest.NewServer(s.engine)
	return s
}

// Handler returns the gin engine, for use without a listener.
func (s *Server) Handler() http.Handler { return s.engine }

// AddCollection creates an empty collection of kind at p.
func (s *Server) AddCollection(p, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = clean(p)
	s.collections[p] = &collection{kind: kind, etag: newETag()}
}

// Put stores doc at p, replacing any previous document, and returns its
// etag. A document under a collection path becomes a member of it.
func (s *Server) Put(p string, doc map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = clean(p)
	body := maps.Clone(doc)
	if body == nil {
		body = map[string]any{}
	}
	body["_self"] = p
	d := &document{body: body, etag: newETag()}
	if _, exists := s.docs[p]; !exists {
		if col, ok := s.collections[path.Dir(p)]; ok {
			col.members = append(col.members, p)
			col.etag = newETag()
		}
	}
	s.docs[p] = d
	return d.etag
}

// Get returns a copy of the document at p and its etag.
func (s *Server) Get(p string) (map[string]any, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[clean(p)]
	if !ok {
		return nil, "", false
	}
	return maps.Clone(d.body), d.etag, true
}

// Members returns the member paths of the collection at p, sorted.
func (s *Server) Members(p string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[clean(p)]
	if !ok {
		return nil
	}
	out := append([]string(nil), col.members...)
	sort.Strings(out)
	return out
}

// FailNext makes the next request fail with status. Calls queue up.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, status)
}

// DropHeader removes name from every following response.
func (s *Server) DropHeader(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped[http.CanonicalHeaderKey(name)] = true
}

// ResetFaults clears queued failures and dropped headers.
func (s *Server) ResetFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = nil
	s.dropped = make(map[string]bool)
}

// Requests returns the number of requests served.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// RequestsFor returns the number of requests served with method.
func (s *Server) RequestsFor(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.methods[method]
}

// --- middleware ---

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", err),
					logger.FieldURL, c.Request.URL.Path,
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

func (s *Server) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests++
		s.methods[c.Request.Method]++
		s.mu.Unlock()

		c.Next()

		s.log.Debug("request", logger.Fields(
			logger.FieldMethod, c.Request.Method,
			logger.FieldURL, c.Request.URL.Path,
			logger.FieldStatus, c.Writer.Status(),
			logger.FieldRequestID, c.GetHeader("X-Request-ID"),
		))
	}
}

func (s *Server) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		var status int
		if len(s.failures) > 0 {
			status = s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			c.Data(status, "text/plain", []byte("injected failure"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// --- handlers ---

func (s *Server) handle(c *gin.Context) {
	p := clean(c.Param("path"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[p]; ok {
		switch c.Request.Method {
		case http.MethodGet:
			s.respond(c, http.StatusOK, "Content-Location", p, col.etag, s.listing(col))
		case http.MethodPost:
			s.create(c, p, col)
		default:
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		}
		return
	}

	d, ok := s.docs[p]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": p})
		return
	}
	switch c.Request.Method {
	case http.MethodGet:
		s.respond(c, http.StatusOK, "Content-Location", p, d.etag, d.body)
	case http.MethodPatch:
		s.patch(c, p, d)
	case http.MethodDelete:
		s.remove(c, p, d)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	}
}

func (s *Server) listing(col *collection) map[string]any {
	items := make([]any, 0, len(col.members))
	for _, m := range col.members {
		if d, ok := s.docs[m]; ok {
			items = append(items, d.body)
		}
	}
	return map[string]any{"kind": col.kind, "items": items}
}

func (s *Server) create(c *gin.Context, p string, col *collection) {
	body, ok := readObject(c)
	if !ok {
		return
	}
	if self, ok := body["_self"]; ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unexpected _self: %v", self)})
		return
	}
	col.next++
	loc := fmt.Sprintf("%s/%d", strings.TrimSuffix(p, "/"), col.next)
	for s.docs[loc] != nil {
		col.next++
		loc = fmt.Sprintf("%s/%d", strings.TrimSuffix(p, "/"), col.next)
	}
	body["_self"] = loc
	d := &document{body: body, etag: newETag()}
	s.docs[loc] = d
	col.members = append(col.members, loc)
	col.etag = newETag()
	s.respond(c, http.StatusCreated, "Location", loc, d.etag, d.body)
}

func (s *Server) patch(c *gin.Context, p string, d *document) {
	if match := c.GetHeader("If-Match"); match != d.etag {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "etag mismatch", "etag": d.etag})
		return
	}
	changes, ok := readObject(c)
	if !ok {
		return
	}
	if k, ok := changes["kind"]; ok && k != d.body["kind"] {
		c.JSON(http.StatusConflict, gin.H{"error": "kind is immutable"})
		return
	}
	for k, v := range changes {
		if strings.HasPrefix(k, "_") {
			continue
		}
		if v == nil {
			delete(d.body, k)
			continue
		}
		d.body[k] = v
	}
	d.etag = newETag()
	s.respond(c, http.StatusOK, "Content-Location", p, d.etag, d.body)
}

func (s *Server) remove(c *gin.Context, p string, d *document) {
	if match := c.GetHeader("If-Match"); match != "" && match != d.etag {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "etag mismatch", "etag": d.etag})
		return
	}
	delete(s.docs, p)
	if col, ok := s.collections[path.Dir(p)]; ok {
		for i, m := range col.members {
			if m == p {
				col.members = append(col.members[:i], col.members[i+1:]...)
				break
			}
		}
		col.etag = newETag()
	}
	s.respond(c, http.StatusOK, "Content-Location", p, newETag(), d.body)
}

func (s *Server) respond(c *gin.Context, status int, locHeader, loc, etag string, body map[string]any) {
	data, err := json.Marshal(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	headers := map[string]string{
		locHeader:      loc,
		"ETag":         etag,
		"Content-Type": contentTypeJSON,
	}
	for name, value := range headers {
		if key := http.CanonicalHeaderKey(name); s.dropped[key] {
			// nil keeps net/http from sniffing a content type.
			c.Writer.Header()[key] = nil
			continue
		}
		c.Header(name, value)
	}
	c.Status(status)
	_, _ = c.Writer.Write(data)
}

func readObject(c *gin.Context) (map[string]any, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a json object"})
		return nil, false
	}
	return body, true
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

func newETag() string {
	return `"` + uuid.NewString() + `"`
}
