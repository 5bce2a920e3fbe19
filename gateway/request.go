package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Request describes one logical API call before transport concerns are
// applied. Middleware may set headers; the retried flag is owned by the
// refresh middleware and travels with the per-call value, never with any
// shared state.
type Request struct {
	Method string
	Path   string // relative to the client's base URL, e.g. "/auth/me"
	Query  url.Values
	Header http.Header
	Body   any // JSON-encoded when non-nil

	// retried marks that this call has already been resubmitted once after
	// a refresh. It is only ever set on a clone.
	retried bool
}

// newRequest builds a request with an initialized header map.
func newRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}
}

// clone returns a copy of the request safe to resubmit. Headers are copied
// so the retry can re-attach credentials without touching the original.
func (r *Request) clone() *Request {
	c := &Request{
		Method:  r.Method,
		Path:    r.Path,
		Body:    r.Body,
		retried: r.retried,
	}
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = append([]string(nil), v...)
		}
	}
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	return c
}

// Response is the raw outcome of a dispatched request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, "[Response.Decode] unmarshal body")
	}
	return nil
}

// ok reports whether the status is in the 2xx range.
func (r *Response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
