package gateway

import "context"

// Doer dispatches a prepared API request and returns the raw response.
// Implementations must return a non-nil Response for any completed HTTP
// exchange, including non-2xx statuses; errors are reserved for failures
// that produced no response at all.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f.
func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Doer with additional behavior. Middleware must not
// retain the request beyond the call.
type Middleware func(Doer) Doer

// Chain composes middleware around base. The first middleware listed runs
// outermost: Chain(base, a, b) dispatches a(b(base)).
func Chain(base Doer, middleware ...Middleware) Doer {
	d := base
	for i := len(middleware) - 1; i >= 0; i-- {
		d = middleware[i](d)
	}
	return d
}
