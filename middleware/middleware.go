// Package middleware defines the minimal chaining contract used to
// intercept the requests sent by an http client: each [Middleware]
// receives the request, a per call [Extensions] bag, and the [Next]
// step of the chain, that ends up calling the wrapped [http.RoundTripper].
package middleware

import (
	"net/http"
)

// Extensions is a per call bag of values that middlewares in the
// same chain can use to share information. A new bag is created for
// each request sent through the chain.
type Extensions map[any]any

// Next runs the remaining part of the chain.
type Next func(req *http.Request, ext Extensions) (*http.Response, error)

// Middleware intercepts a request before it is handed to the next step
// of the chain.
type Middleware interface {
	Handle(req *http.Request, ext Extensions, next Next) (*http.Response, error)
}

// Func is an adapter to use ordinary functions as a [Middleware].
type Func func(req *http.Request, ext Extensions, next Next) (*http.Response, error)

// Handle calls f(req, ext, next).
func (f Func) Handle(req *http.Request, ext Extensions, next Next) (*http.Response, error) {
	return f(req, ext, next)
}

var _ http.RoundTripper = (*chain)(nil)

type chain struct {
	base        http.RoundTripper
	middlewares []Middleware
}

// NewRoundTripper returns an [http.RoundTripper] that runs the provided
// middlewares, in order, before calling base. If base is nil the
// [http.DefaultTransport] is used.
//
// Nil middlewares are skipped. Only untyped nils are detected: a nil
// pointer stored in a [Middleware] is kept, and its Handle method is
// called for every request.
func NewRoundTripper(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if len(mws) == 0 {
		return base
	}
	m := make([]Middleware, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			m = append(m, mw)
		}
	}
	if len(m) == 0 {
		return base
	}
	return &chain{
		base:        base,
		middlewares: m,
	}
}

// RoundTrip implements http.RoundTripper.
func (c *chain) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.run(0, req, make(Extensions))
}

func (c *chain) run(idx int, req *http.Request, ext Extensions) (*http.Response, error) {
	if idx >= len(c.middlewares) {
		return c.base.RoundTrip(req)
	}
	return c.middlewares[idx].Handle(req, ext, func(r *http.Request, e Extensions) (*http.Response, error) {
		return c.run(idx+1, r, e)
	})
}

// NewClient returns a copy of c whose transport runs the provided
// middlewares. A nil client is treated as the [http.DefaultClient].
func NewClient(c *http.Client, mws ...Middleware) *http.Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &http.Client{
		Transport:     NewRoundTripper(c.Transport, mws...),
		CheckRedirect: c.CheckRedirect,
		Jar:           c.Jar,
		Timeout:       c.Timeout,
	}
}
