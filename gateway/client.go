// Package gateway is the single HTTP client for the Clinicore backend.
// Every outgoing call flows through an explicit middleware chain that
// attaches the current access token, tags the call with a request ID, and
// transparently performs the at-most-once refresh-and-retry cycle on 401.
//
// The gateway reads the session store on every call and is the only
// component besides the auth controller allowed to write to it: a
// successful refresh stores the new access token, and a failed refresh
// clears the session entirely before surfacing ErrSessionExpired.
package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/clinicore/clinicore-go/session"
)

const (
	defaultTimeout  = 15 * time.Second
	headerRequestID = "X-Request-ID"
)

// Client talks to the Clinicore REST API.
type Client struct {
	store            session.Store
	log              zerolog.Logger
	httpClient       *http.Client
	onSessionExpired func()

	transport *transport
	doer      Doer // full chain: refresh retry, request ID, bearer
	authDoer  Doer // login/register: request ID only, no bearer, no retry

	// refreshGroup collapses concurrent refresh attempts into one call, so
	// a burst of 401s produces a single POST /auth/refresh.
	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (15s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithSessionExpiredHook registers fn to run after an unrecoverable refresh
// failure, once the session has been cleared. Front ends use it to navigate
// back to login.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// New creates a client for the API rooted at baseURL. The store supplies
// tokens for outgoing calls and receives token updates from the refresh
// flow.
func New(baseURL string, store session.Store, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[gateway.New] base URL is required")
	}
	if store == nil {
		return nil, errors.New("[gateway.New] session store is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[gateway.New] parse base URL")
	}

	c := &Client{
		store: store,
		log:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	c.transport = &transport{base: base, http: c.httpClient}
	c.doer = Chain(c.transport, c.refreshRetry, c.requestID, c.bearer)
	c.authDoer = Chain(c.transport, c.requestID)
	return c, nil
}

// call dispatches req through the full middleware chain and decodes a 2xx
// body into out (when out is non-nil). Non-2xx responses become *APIError.
func (c *Client) call(ctx context.Context, req *Request, out any) error {
	return dispatch(ctx, c.doer, req, out)
}

// callAuth dispatches req outside the bearer/refresh chain. Login and
// registration use it: a 401 from bad credentials must surface as-is and
// never trigger a refresh against a stale token.
func (c *Client) callAuth(ctx context.Context, req *Request, out any) error {
	return dispatch(ctx, c.authDoer, req, out)
}

func dispatch(ctx context.Context, d Doer, req *Request, out any) error {
	resp, err := d.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return apiError(resp)
	}
	if out != nil {
		return resp.Decode(out)
	}
	return nil
}

// bearer attaches the current access token, when one exists, as the
// request's bearer credential.
func (c *Client) bearer(next Doer) Doer {
	return DoerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		sess, err := c.store.Get()
		if err != nil {
			return nil, errors.Wrap(err, "[Client.bearer] read session")
		}
		if sess.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		}
		return next.Do(ctx, req)
	})
}

// requestID tags each logical call with a UUID. The retry of a call keeps
// the original ID: it is the same logical call.
func (c *Client) requestID(next Doer) Doer {
	return DoerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		if req.Header.Get(headerRequestID) == "" {
			req.Header.Set(headerRequestID, uuid.NewString())
		}
		return next.Do(ctx, req)
	})
}

// refreshRetry implements the 401 recovery cycle. Each call is retried at
// most once, tracked by the retried flag on the per-call request value.
func (c *Client) refreshRetry(next Doer) Doer {
	return DoerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		resp, err := next.Do(ctx, req)
		if err != nil || resp.StatusCode != http.StatusUnauthorized || req.retried {
			return resp, err
		}

		sess, serr := c.store.Get()
		if serr != nil {
			c.log.Error().Err(serr).Msg("session read failed during 401 recovery")
			return resp, nil
		}
		if sess.RefreshToken == "" {
			// Nothing to refresh with; the original 401 stands.
			return resp, nil
		}

		if rerr := c.refreshAccessToken(ctx); rerr != nil {
			c.expireSession(rerr)
			return nil, &SessionExpiredError{Cause: apiError(resp)}
		}

		retry := req.clone()
		retry.retried = true
		c.log.Debug().Str("path", req.Path).Msg("retrying call with refreshed access token")
		return next.Do(ctx, retry)
	})
}

// refreshAccessToken exchanges the refresh token for a new access token and
// stores it. Concurrent callers share a single exchange.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	sess, err := c.store.Get()
	if err != nil {
		return errors.Wrap(err, "[Client.doRefresh] read session")
	}
	if sess.RefreshToken == "" {
		return errors.New("[Client.doRefresh] no refresh token")
	}

	req := newRequest(http.MethodPost, "/auth/refresh")
	req.Header.Set("Authorization", "Bearer "+sess.RefreshToken)

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return errors.Wrap(err, "[Client.doRefresh] refresh call")
	}
	if !resp.ok() {
		return errors.Wrap(apiError(resp), "[Client.doRefresh] refresh rejected")
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := resp.Decode(&body); err != nil {
		return errors.Wrap(err, "[Client.doRefresh] decode refresh response")
	}
	if body.AccessToken == "" {
		return errors.New("[Client.doRefresh] empty access token in refresh response")
	}

	// Only the access token changes; refresh token and user are untouched.
	sess.AccessToken = body.AccessToken
	if err := c.store.Set(sess); err != nil {
		return errors.Wrap(err, "[Client.doRefresh] store refreshed token")
	}
	c.log.Debug().Msg("access token refreshed")
	return nil
}

// expireSession clears all session state after a terminal refresh failure
// and notifies the registered hook.
func (c *Client) expireSession(cause error) {
	if err := c.store.Clear(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear session after refresh failure")
	}
	c.log.Warn().Err(cause).Msg("session expired")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}
