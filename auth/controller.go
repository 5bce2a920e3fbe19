// Package auth orchestrates the session lifecycle: login, registration,
// current-user fetch, and logout. The Controller is the sole owner of
// session mutations outside the gateway's refresh flow; every operation
// either updates the store atomically or leaves it untouched.
package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore-go/gateway"
	"github.com/clinicore/clinicore-go/session"
)

// Controller mediates between the gateway and the session store.
type Controller struct {
	api   *gateway.Client
	store session.Store
	log   zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// NewController creates a session controller over the given gateway and
// store. The store should be the same one the gateway was built with, so
// refresh updates and controller updates observe each other.
func NewController(api *gateway.Client, store session.Store, options ...Option) (*Controller, error) {
	if api == nil {
		return nil, errors.New("[auth.NewController] gateway client is required")
	}
	if store == nil {
		return nil, errors.New("[auth.NewController] session store is required")
	}

	c := &Controller{
		api:   api,
		store: store,
		log:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Login authenticates with the backend. On success the access token,
// refresh token, and user record are stored together in one write and the
// user is returned. On failure the session is left exactly as it was; use
// gateway.ServerMessage to surface the reason.
func (c *Controller) Login(ctx context.Context, creds gateway.Credentials) (*session.User, error) {
	result, err := c.api.Login(ctx, creds)
	if err != nil {
		c.log.Warn().Str("email", creds.Email).Err(err).Msg("login failed")
		return nil, errors.Wrap(err, "[Controller.Login]")
	}

	user := result.User
	if err := c.store.Set(session.Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         &user,
	}); err != nil {
		return nil, errors.Wrap(err, "[Controller.Login] persist session")
	}

	c.log.Info().Str("role", string(user.Role)).Msg("logged in")
	return &user, nil
}

// Register creates a patient account. It is a pure pass-through: success or
// failure, the session is never touched — a freshly registered user still
// has to log in.
func (c *Controller) Register(ctx context.Context, reg gateway.Registration) (*gateway.RegisterResult, error) {
	result, err := c.api.Register(ctx, reg)
	if err != nil {
		c.log.Warn().Str("email", reg.Email).Err(err).Msg("registration failed")
		return nil, errors.Wrap(err, "[Controller.Register]")
	}
	return result, nil
}

// FetchCurrentUser refreshes the stored user record from the backend. Only
// the user field changes; tokens are untouched. On failure the session is
// left as it was.
func (c *Controller) FetchCurrentUser(ctx context.Context) (*session.User, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.FetchCurrentUser]")
	}

	sess, err := c.store.Get()
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.FetchCurrentUser] read session")
	}
	sess.User = user
	if err := c.store.Set(sess); err != nil {
		return nil, errors.Wrap(err, "[Controller.FetchCurrentUser] persist user")
	}
	return user, nil
}

// Logout unconditionally clears the session from memory and persistent
// storage. It cannot fail; a storage error is logged and swallowed because
// there is nothing useful a caller could do with it.
func (c *Controller) Logout() {
	if err := c.store.Clear(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear session on logout")
	}
	c.log.Info().Msg("logged out")
}

// Current returns a read-only snapshot of the session. A store read failure
// degrades to the empty (unauthenticated) session.
func (c *Controller) Current() session.Session {
	sess, err := c.store.Get()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to read session")
		return session.Session{}
	}
	return sess
}
