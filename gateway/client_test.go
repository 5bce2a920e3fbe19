package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinicore-go/gateway"
	"github.com/clinicore/clinicore-go/session"
	"github.com/clinicore/clinicore-go/session/memstore"
)

// fakeBackend is a minimal auth backend: /auth/me accepts exactly one
// access token, /auth/refresh rotates it. Counters record traffic.
type fakeBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	nextAccess   string
	refreshFails bool
	refreshDelay time.Duration

	refreshCalls int
	meCalls      int
	lastMeAuth   string
	lastMeReqID  string

	srv *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		validAccess:  "initial-access",
		validRefresh: "good-refresh",
		nextAccess:   "rotated-access",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("GET /auth/me", b.handleMe)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.refreshCalls++
	delay := b.refreshDelay
	fails := b.refreshFails
	ok := r.Header.Get("Authorization") == "Bearer "+b.validRefresh
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fails || !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	b.mu.Lock()
	b.validAccess = b.nextAccess
	token := b.validAccess
	b.mu.Unlock()
	json.NewEncoder(w).Encode(map[string]string{"access_token": token})
}

func (b *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.meCalls++
	b.lastMeAuth = r.Header.Get("Authorization")
	b.lastMeReqID = r.Header.Get("X-Request-ID")
	ok := r.Header.Get("Authorization") == "Bearer "+b.validAccess
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "token expired")
		return
	}
	json.NewEncoder(w).Encode(session.User{ID: 42, Email: "doc@example.com", Role: session.RoleDoctor})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (b *fakeBackend) counts() (refresh, me int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls, b.meCalls
}

func newTestClient(t *testing.T, b *fakeBackend, store session.Store, options ...gateway.Option) *gateway.Client {
	t.Helper()
	client, err := gateway.New(b.srv.URL, store, options...)
	require.NoError(t, err)
	return client
}

func seedSession(t *testing.T, store session.Store, access, refresh string) {
	t.Helper()
	require.NoError(t, store.Set(session.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &session.User{ID: 42, Email: "doc@example.com", Role: session.RoleDoctor},
	}))
}

func TestNew_Validation(t *testing.T) {
	t.Run("missing base URL", func(t *testing.T) {
		_, err := gateway.New("", memstore.New())
		require.Error(t, err)
	})

	t.Run("missing store", func(t *testing.T) {
		_, err := gateway.New("http://localhost:5000/api", nil)
		require.Error(t, err)
	})
}

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	backend := newFakeBackend(t)
	store := memstore.New()
	seedSession(t, store, "initial-access", "good-refresh")

	client := newTestClient(t, backend, store)
	user, err := client.CurrentUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, 42, user.ID)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Equal(t, "Bearer initial-access", backend.lastMeAuth)
	require.NotEmpty(t, backend.lastMeReqID)
}

func TestClient_RefreshRetrySucceedsOnce(t *testing.T) {
	backend := newFakeBackend(t)
	store := memstore.New()
	seedSession(t, store, "stale-access", "good-refresh")

	client := newTestClient(t, backend, store)
	user, err := client.CurrentUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, session.RoleDoctor, user.Role)

	refresh, me := backend.counts()
	require.Equal(t, 1, refresh, "exactly one refresh call")
	require.Equal(t, 2, me, "original call plus one retry")

	// The retry carried the rotated token.
	backend.mu.Lock()
	require.Equal(t, "Bearer rotated-access", backend.lastMeAuth)
	backend.mu.Unlock()

	// Only the access token changed in the store.
	sess, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "rotated-access", sess.AccessToken)
	require.Equal(t, "good-refresh", sess.RefreshToken)
	require.NotNil(t, sess.User)
}

func TestClient_NoRefreshTokenPropagates401(t *testing.T) {
	backend := newFakeBackend(t)
	store := memstore.New()
	require.NoError(t, store.Set(session.Session{AccessToken: "stale-access"}))

	client := newTestClient(t, backend, store)
	_, err := client.CurrentUser(t.Context())

	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
	require.Equal(t, "token expired", apiErr.Message)
	require.NotErrorIs(t, err, gateway.ErrSessionExpired)

	refresh, me := backend.counts()
	require.Zero(t, refresh)
	require.Equal(t, 1, me)

	// Session stays as it was: no refresh token does not mean expiry.
	sess, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "stale-access", sess.AccessToken)
}

func TestClient_SecondUnauthorizedPropagatesWithoutSecondRefresh(t *testing.T) {
	backend := newFakeBackend(t)
	// The rotated token is also rejected, so the retry 401s again.
	backend.nextAccess = "still-wrong"
	backend.validAccess = "never-matched"

	store := memstore.New()
	seedSession(t, store, "stale-access", "good-refresh")

	client := newTestClient(t, backend, store)
	_, err := client.CurrentUser(t.Context())

	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())

	refresh, me := backend.counts()
	require.Equal(t, 1, refresh, "no second refresh attempt")
	require.Equal(t, 2, me, "retried exactly once")
}

func TestClient_RefreshFailureExpiresSession(t *testing.T) {
	backend := newFakeBackend(t)
	backend.refreshFails = true

	store := memstore.New()
	seedSession(t, store, "stale-access", "bad-refresh")

	var hookFired bool
	client := newTestClient(t, backend, store, gateway.WithSessionExpiredHook(func() {
		hookFired = true
	}))

	_, err := client.CurrentUser(t.Context())
	require.ErrorIs(t, err, gateway.ErrSessionExpired)

	var expired *gateway.SessionExpiredError
	require.ErrorAs(t, err, &expired)

	// The original call's failure rides along as the cause.
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
	require.Equal(t, "token expired", apiErr.Message)

	require.True(t, hookFired, "session-expired hook must fire")

	// All three fields cleared together.
	sess, serr := store.Get()
	require.NoError(t, serr)
	require.Equal(t, session.Session{}, sess)

	refresh, me := backend.counts()
	require.Equal(t, 1, refresh)
	require.Equal(t, 1, me, "no retry after failed refresh")
}

func TestClient_ConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	backend := newFakeBackend(t)
	backend.refreshDelay = 100 * time.Millisecond

	store := memstore.New()
	seedSession(t, store, "stale-access", "good-refresh")

	client := newTestClient(t, backend, store)

	const callers = 5
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.CurrentUser(t.Context())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	refresh, _ := backend.counts()
	require.Equal(t, 1, refresh, "concurrent 401s must share a single refresh")
}

func TestClient_LoginBypassesRefreshChain(t *testing.T) {
	backend := newFakeBackend(t)
	store := memstore.New()
	// A stale refresh token is present; a bad login must not spend it.
	seedSession(t, store, "", "good-refresh")

	client := newTestClient(t, backend, store)
	_, err := client.Login(t.Context(), gateway.Credentials{Email: "x@example.com", Password: "wrong"})

	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
	require.Equal(t, "Invalid email or password", apiErr.Message)

	refresh, _ := backend.counts()
	require.Zero(t, refresh, "login 401 must not trigger a refresh")
}

func TestClient_NetworkFailure(t *testing.T) {
	store := memstore.New()
	seedSession(t, store, "tok", "refresh")

	// A server that is already closed produces a connection error.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := gateway.New(srv.URL, store)
	require.NoError(t, err)

	_, err = client.CurrentUser(t.Context())
	var netErr *gateway.NetworkError
	require.ErrorAs(t, err, &netErr)

	// Session untouched on transport failure.
	sess, serr := store.Get()
	require.NoError(t, serr)
	require.Equal(t, "tok", sess.AccessToken)
	require.Equal(t, "refresh", sess.RefreshToken)
}

func TestServerMessage(t *testing.T) {
	require.Equal(t, "boom", gateway.ServerMessage(&gateway.APIError{Status: 400, Message: "boom"}, "fallback"))
	require.Equal(t, "boom", gateway.ServerMessage(errors.Wrap(&gateway.APIError{Status: 400, Message: "boom"}, "ctx"), "fallback"))
	require.Equal(t, "fallback", gateway.ServerMessage(errors.New("plain"), "fallback"))
}
