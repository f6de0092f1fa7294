// Package transport sends the HTTP requests issued by the resource client.
//
// Adapter resolves request URLs against a base URL, applies default headers
// and authentication, and returns the raw status, headers and body. It never
// interprets the HTTP status: a 412 or a 500 comes back as a Response, and
// only connection-level failures come back as *Error.
//
//	a, err := transport.New(transport.Config{
//	    BaseURL: "https://api.example.com/v1/",
//	    Auth:    transport.BearerAuth(token),
//	    Retry:   transport.DefaultRetryConfig(),
//	}, transport.WithMiddleware(transport.WithRequestID(), transport.WithLogging(log)))
//
//	resp, err := a.Do(ctx, transport.Request{Method: http.MethodGet, URL: "widgets/1"})
package transport
