// Package filestore persists the session to a JSON state file, the desktop
// analogue of browser local storage. Writes go to a temporary file in the
// same directory followed by an atomic rename, so a crash mid-write can
// never leave a half-written state file behind.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/clinicore/clinicore-go/session"
)

// stateFile is the on-disk layout. Field names match the storage keys used
// by the other backends.
type stateFile struct {
	AccessToken  string        `json:"access_token,omitempty"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	User         *session.User `json:"user,omitempty"`
}

// Store persists sessions to a single JSON file with 0600 permissions.
type Store struct {
	path string
}

// New creates a file-backed store at path. The parent directory is created
// on first write, not here.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("[filestore.New] path is required")
	}
	return &Store{path: path}, nil
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Get reads the session from disk. A missing state file is an empty session.
func (s *Store) Get() (session.Session, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return session.Session{}, nil
	}
	if err != nil {
		return session.Session{}, errors.Wrap(err, "[filestore.Get] read state file")
	}
	var state stateFile
	if err := json.Unmarshal(raw, &state); err != nil {
		return session.Session{}, errors.Wrap(err, "[filestore.Get] decode state file")
	}
	return session.Session{
		AccessToken:  state.AccessToken,
		RefreshToken: state.RefreshToken,
		User:         state.User,
	}, nil
}

// Set writes the session to disk atomically.
func (s *Store) Set(sess session.Session) error {
	raw, err := json.MarshalIndent(stateFile{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         sess.User,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore.Set] encode state")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[filestore.Set] create state directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return errors.Wrap(err, "[filestore.Set] create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Set] chmod temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Set] write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore.Set] close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "[filestore.Set] rename state file")
	}
	return nil
}

// Clear removes the state file. Clearing an already-empty store is not an
// error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[filestore.Clear] remove state file")
	}
	return nil
}
