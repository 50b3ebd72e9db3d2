// Package session persists the client's login between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinyakov/TaskKeeper/internal/client/api"
)

// DefaultFile is used when no path is configured.
const DefaultFile = "taskkeeper-session.json"

// Store reads and writes the session file.
type Store struct {
	Path string
}

// Load returns the saved session, or nil when there is none.
func (s Store) Load() (*api.Session, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sess api.Session
	if err := json.NewDecoder(f).Decode(&sess); err != nil {
		return nil, fmt.Errorf("read session %s: %w", s.Path, err)
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save writes sess, readable only by the current user.
func (s Store) Save(sess *api.Session) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, b, 0o600)
}

// Clear removes the session file. A missing file is not an error.
func (s Store) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
