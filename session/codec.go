package session

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// EncodeValues flattens a Session into the shared storage-key layout used by
// the key-value backed stores. Absent fields are omitted from the result.
func EncodeValues(s Session) (map[string]string, error) {
	values := make(map[string]string, 3)
	if s.AccessToken != "" {
		values[KeyAccessToken] = s.AccessToken
	}
	if s.RefreshToken != "" {
		values[KeyRefreshToken] = s.RefreshToken
	}
	if s.User != nil {
		encoded, err := json.Marshal(s.User)
		if err != nil {
			return nil, errors.Wrap(err, "[EncodeValues] marshal user")
		}
		values[KeyUser] = string(encoded)
	}
	return values, nil
}

// DecodeValues rebuilds a Session from the storage-key layout produced by
// EncodeValues. Missing keys decode as absent fields.
func DecodeValues(values map[string]string) (Session, error) {
	s := Session{
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
	}
	if raw, ok := values[KeyUser]; ok && raw != "" {
		user := &User{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			return Session{}, errors.Wrap(err, "[DecodeValues] unmarshal user")
		}
		s.User = user
	}
	return s, nil
}
