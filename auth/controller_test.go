package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinicore-go/auth"
	"github.com/clinicore/clinicore-go/gateway"
	"github.com/clinicore/clinicore-go/session"
	"github.com/clinicore/clinicore-go/session/memstore"
)

const (
	testEmail    = "pat@example.com"
	testPassword = "secret123"
)

// authBackend is a realistic stand-in for the Clinicore auth service: it
// bcrypt-checks credentials and issues real HS256 JWTs, so the client flows
// run against the same token mechanics the production backend uses.
type authBackend struct {
	t            *testing.T
	secret       []byte
	passwordHash []byte
	accessTTL    time.Duration

	mu           sync.Mutex
	refreshCalls int

	srv *httptest.Server
}

func newAuthBackend(t *testing.T) *authBackend {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	b := &authBackend{
		t:            t,
		secret:       []byte("test-signing-secret"),
		passwordHash: hash,
		accessTTL:    15 * time.Minute,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/register", b.handleRegister)
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("GET /auth/me", b.handleMe)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *authBackend) mint(kind string, ttl time.Duration) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "7",
		"role": "patient",
		"type": kind,
		"exp":  time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString(b.secret)
	require.NoError(b.t, err)
	return signed
}

// validate parses a bearer token and checks its type claim. Expiry is
// enforced by the parser itself.
func (b *authBackend) validate(r *http.Request, kind string) bool {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		return false
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err == nil && claims["type"] == kind
}

func (b *authBackend) user() session.User {
	return session.User{
		ID:      7,
		Email:   testEmail,
		Role:    session.RolePatient,
		Profile: json.RawMessage(`{"name":"Pat Doe","age":34}`),
	}
}

func (b *authBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds gateway.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if creds.Email != testEmail || bcrypt.CompareHashAndPassword(b.passwordHash, []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	json.NewEncoder(w).Encode(gateway.LoginResult{
		AccessToken:  b.mint("access", b.accessTTL),
		RefreshToken: b.mint("refresh", 7*24*time.Hour),
		User:         b.user(),
	})
}

func (b *authBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg gateway.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if reg.Email == testEmail {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(gateway.RegisterResult{
		Message: "Registration successful",
		User:    session.User{ID: 8, Email: reg.Email, Role: session.RolePatient},
	})
}

func (b *authBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.refreshCalls++
	b.mu.Unlock()

	if !b.validate(r, "refresh") {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"access_token": b.mint("access", 15*time.Minute)})
}

func (b *authBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	if !b.validate(r, "access") {
		writeError(w, http.StatusUnauthorized, "token expired")
		return
	}
	json.NewEncoder(w).Encode(b.user())
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// fixture wires a controller against the fake backend over a shared store.
type fixture struct {
	backend    *authBackend
	store      session.Store
	controller *auth.Controller
}

func setup(t *testing.T) *fixture {
	t.Helper()
	backend := newAuthBackend(t)
	return setupWithStore(t, backend, memstore.New())
}

func setupWithStore(t *testing.T, backend *authBackend, store session.Store) *fixture {
	t.Helper()
	client, err := gateway.New(backend.srv.URL, store)
	require.NoError(t, err)
	controller, err := auth.NewController(client, store)
	require.NoError(t, err)
	return &fixture{backend: backend, store: store, controller: controller}
}

func TestNewController_Validation(t *testing.T) {
	backend := newAuthBackend(t)
	client, err := gateway.New(backend.srv.URL, memstore.New())
	require.NoError(t, err)

	t.Run("missing gateway", func(t *testing.T) {
		_, err := auth.NewController(nil, memstore.New())
		require.Error(t, err)
	})

	t.Run("missing store", func(t *testing.T) {
		_, err := auth.NewController(client, nil)
		require.Error(t, err)
	})
}

func TestController_Login(t *testing.T) {
	t.Run("bad credentials never mutate the session", func(t *testing.T) {
		f := setup(t)
		_, err := f.controller.Login(t.Context(), gateway.Credentials{Email: testEmail, Password: "nope"})
		require.Error(t, err)
		require.Equal(t, "Invalid email or password", gateway.ServerMessage(err, "Login failed"))

		require.Equal(t, session.Session{}, f.controller.Current())
	})

	t.Run("success populates all three fields together", func(t *testing.T) {
		f := setup(t)
		user, err := f.controller.Login(t.Context(), gateway.Credentials{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		require.Equal(t, session.RolePatient, user.Role)

		sess := f.controller.Current()
		require.True(t, sess.Authenticated())
		require.NotEmpty(t, sess.AccessToken)
		require.NotEmpty(t, sess.RefreshToken)
		require.NotNil(t, sess.User)
		require.Equal(t, testEmail, sess.User.Email)
		require.True(t, sess.IsPatient())
	})
}

func TestController_Register(t *testing.T) {
	t.Run("success is a pure pass-through", func(t *testing.T) {
		f := setup(t)
		result, err := f.controller.Register(t.Context(), gateway.Registration{
			Email: "new@example.com", Password: "pw", Name: "New Pat", Age: 30, Gender: "f", Phone: "555",
		})
		require.NoError(t, err)
		require.Equal(t, "Registration successful", result.Message)

		// Registering does not sign anyone in.
		require.False(t, f.controller.Current().Authenticated())
	})

	t.Run("duplicate email surfaces the server message", func(t *testing.T) {
		f := setup(t)
		_, err := f.controller.Register(t.Context(), gateway.Registration{Email: testEmail})
		require.Error(t, err)
		require.Equal(t, "Email already registered", gateway.ServerMessage(err, "Registration failed"))
		require.False(t, f.controller.Current().Authenticated())
	})
}

func TestController_FetchCurrentUser(t *testing.T) {
	t.Run("overwrites the user record, not the tokens", func(t *testing.T) {
		f := setup(t)
		_, err := f.controller.Login(t.Context(), gateway.Credentials{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		before := f.controller.Current()

		user, err := f.controller.FetchCurrentUser(t.Context())
		require.NoError(t, err)
		require.Equal(t, testEmail, user.Email)

		after := f.controller.Current()
		require.Equal(t, before.AccessToken, after.AccessToken)
		require.Equal(t, before.RefreshToken, after.RefreshToken)
	})

	t.Run("expired access token refreshes exactly once", func(t *testing.T) {
		backend := newAuthBackend(t)
		backend.accessTTL = -time.Minute // login hands out an already-expired token
		f := setupWithStore(t, backend, memstore.New())

		_, err := f.controller.Login(t.Context(), gateway.Credentials{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		expiredToken := f.controller.Current().AccessToken

		user, err := f.controller.FetchCurrentUser(t.Context())
		require.NoError(t, err)
		require.Equal(t, session.RolePatient, user.Role)

		backend.mu.Lock()
		require.Equal(t, 1, backend.refreshCalls)
		backend.mu.Unlock()

		sess := f.controller.Current()
		require.NotEqual(t, expiredToken, sess.AccessToken, "access token must be rotated")
		require.NotEmpty(t, sess.RefreshToken)
	})

	t.Run("invalid refresh token clears the session", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.store.Set(session.Session{
			AccessToken:  "garbage",
			RefreshToken: "also-garbage",
			User:         &session.User{ID: 7, Role: session.RolePatient},
		}))

		_, err := f.controller.FetchCurrentUser(t.Context())
		require.ErrorIs(t, err, gateway.ErrSessionExpired)
		require.Equal(t, session.Session{}, f.controller.Current())
	})
}

func TestController_Logout(t *testing.T) {
	t.Run("clears everything", func(t *testing.T) {
		f := setup(t)
		_, err := f.controller.Login(t.Context(), gateway.Credentials{Email: testEmail, Password: testPassword})
		require.NoError(t, err)

		f.controller.Logout()

		sess, err := f.store.Get()
		require.NoError(t, err)
		require.Equal(t, session.Session{}, sess)
	})

	t.Run("storage failure does not surface", func(t *testing.T) {
		backend := newAuthBackend(t)
		store := &flakyStore{Store: memstore.New(), failClear: true}
		f := setupWithStore(t, backend, store)

		require.NotPanics(t, func() { f.controller.Logout() })
	})
}

func TestController_Current_DegradesOnStoreFailure(t *testing.T) {
	backend := newAuthBackend(t)
	store := &flakyStore{Store: memstore.New(), failGet: true}
	f := setupWithStore(t, backend, store)

	require.Equal(t, session.Session{}, f.controller.Current())
}

// flakyStore injects failures into a real store.
type flakyStore struct {
	session.Store
	failGet   bool
	failClear bool
}

func (s *flakyStore) Get() (session.Session, error) {
	if s.failGet {
		return session.Session{}, errTestStore
	}
	return s.Store.Get()
}

func (s *flakyStore) Clear() error {
	if s.failClear {
		return errTestStore
	}
	return s.Store.Clear()
}

var errTestStore = &storeError{}

type storeError struct{}

func (*storeError) Error() string { return "store unavailable" }
