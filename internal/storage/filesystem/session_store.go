package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New("no saved session")

// Session is the logged-in state of the CLI.
type Session struct {
	ServerURL string    `yaml:"server"`
	Token     string    `yaml:"token"`
	UserID    string    `yaml:"userId"`
	Name      string    `yaml:"name"`
	OrgName   string    `yaml:"orgName,omitempty"`
	SavedAt   time.Time `yaml:"savedAt"`
}

// SessionStore keeps the session in a single YAML file readable only by
// its owner.
type SessionStore struct {
	path string
}

// NewSessionStore creates a session store under dir.
func NewSessionStore(dir string) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &SessionStore{path: filepath.Join(dir, "session.yaml")}, nil
}

// Path returns the session file location.
func (s *SessionStore) Path() string {
	return s.path
}

// Load reads the saved session.
func (s *SessionStore) Load(ctx context.Context) (*Session, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := yaml.Unmarshal(content, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if session.Token == "" {
		return nil, ErrNoSession
	}
	return &session, nil
}

// Save replaces the saved session.
func (s *SessionStore) Save(ctx context.Context, session *Session) error {
	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now()
	}
	content, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return writeFileAtomic(s.path, content, 0600)
}

// Clear forgets the saved session. Clearing an absent session is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path.
func writeFileAtomic(path string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
