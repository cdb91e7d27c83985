package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

var ErrNoSession = errors.New("no saved session")

type Session struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Color      string    `json:"color,omitempty"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// SessionStore persists the signed-in identity between CLI invocations.
type SessionStore struct {
	path string
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultSessionPath is <user config dir>/shared-todo/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "shared-todo", "session.json"), nil
}

func (s *SessionStore) Load() (Session, error) {
	var sess Session
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return sess, ErrNoSession
	}
	if err != nil {
		return sess, err
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, err
	}
	if sess.UserID == "" {
		return sess, ErrNoSession
	}
	return sess, nil
}

func (s *SessionStore) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
