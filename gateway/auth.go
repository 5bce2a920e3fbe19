package gateway

import (
	"context"
	"net/http"

	"github.com/clinicore/clinicore-go/session"
)

// Credentials are the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the successful login response: a token pair plus the
// signed-in user's record.
type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         session.User `json:"user"`
}

// Registration is the patient self-registration payload. Admin and doctor
// accounts are provisioned server-side.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone"`
}

// RegisterResult is the successful registration response. No tokens are
// issued; the user still has to log in.
type RegisterResult struct {
	Message string       `json:"message"`
	User    session.User `json:"user"`
}

// Login authenticates against POST /auth/login. The call bypasses the
// bearer and refresh middleware: bad credentials must come back as a plain
// 401, not spend a refresh attempt.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	req := newRequest(http.MethodPost, "/auth/login")
	req.Body = creds

	var out LoginResult
	if err := c.callAuth(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a patient account via POST /auth/register.
func (c *Client) Register(ctx context.Context, reg Registration) (*RegisterResult, error) {
	req := newRequest(http.MethodPost, "/auth/register")
	req.Body = reg

	var out RegisterResult
	if err := c.callAuth(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser fetches the signed-in user's record from GET /auth/me. The
// call runs through the full chain, so an expired access token is refreshed
// transparently.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	req := newRequest(http.MethodGet, "/auth/me")

	var out session.User
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
