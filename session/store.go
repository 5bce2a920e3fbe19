package session

// Storage keys shared by every key-value backed Store implementation. The
// user record is stored JSON-encoded under KeyUser.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Store persists Session state. Set and Clear must write through to the
// backing storage synchronously before returning, so that a crash
// immediately after either call leaves storage consistent with what the
// caller observed. All three session fields move together: a Store never
// exposes a state where only some of them have been written or cleared.
//
// Tokens are opaque at this layer; no validation of their contents is
// performed.
type Store interface {
	// Get returns the persisted session. A store with nothing persisted
	// returns the zero Session and no error.
	Get() (Session, error)

	// Set replaces the persisted session with s.
	Set(s Session) error

	// Clear removes the persisted session entirely.
	Clear() error
}
