// Package sqlitestore persists the session to a SQLite database using the
// pure-Go modernc.org/sqlite driver. Set and Clear run inside a transaction
// so the three session fields always change together, even if the process
// dies mid-write.
package sqlitestore

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/clinicore/clinicore-go/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Store persists sessions in a single key-value table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the session database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("[sqlitestore.Open] path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] open database")
	}
	// The driver serializes access per connection; a single connection
	// avoids table-lock errors from concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.Open] create schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads all persisted keys and rebuilds the session.
func (s *Store) Get() (session.Session, error) {
	rows, err := s.db.Query(`SELECT key, value FROM session_state`)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "[sqlitestore.Get] query state")
	}
	defer rows.Close()

	values := make(map[string]string, 3)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return session.Session{}, errors.Wrap(err, "[sqlitestore.Get] scan row")
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return session.Session{}, errors.Wrap(err, "[sqlitestore.Get] iterate rows")
	}
	return session.DecodeValues(values)
}

// Set replaces the persisted session in one transaction.
func (s *Store) Set(sess session.Session) error {
	values, err := session.EncodeValues(sess)
	if err != nil {
		return errors.Wrap(err, "[sqlitestore.Set] encode session")
	}
	return s.transact("Set", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM session_state`); err != nil {
			return fmt.Errorf("clear previous state: %w", err)
		}
		for key, value := range values {
			if _, err := tx.Exec(`INSERT INTO session_state (key, value) VALUES (?, ?)`, key, value); err != nil {
				return fmt.Errorf("insert %s: %w", key, err)
			}
		}
		return nil
	})
}

// Clear removes every persisted key in one transaction.
func (s *Store) Clear() error {
	return s.transact("Clear", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM session_state`)
		return err
	})
}

func (s *Store) transact(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrapf(err, "[sqlitestore.%s] begin transaction", op)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "[sqlitestore.%s]", op)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "[sqlitestore.%s] commit", op)
	}
	return nil
}
