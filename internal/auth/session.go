// Package auth owns the bearer credential for the running client.
//
// There is exactly one Store per process; everything that talks to the
// server reads the token through it. The credential is persisted as a pair
// of files (token, user_email) that are always written and removed together:
// a half-present pair restores as logged out, never as a partial session.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"taskdeck/internal/model"
)

const (
	tokenFileName = "token"
	emailFileName = "user_email"

	// EnvToken and EnvEmail override the stored pair. Both must be set;
	// one without the other is ignored.
	EnvToken = "TASKDECK_TOKEN"
	EnvEmail = "TASKDECK_EMAIL"
)

// Credential sources reported by Source.
const (
	SourceNone = ""
	SourceEnv  = "env"
	SourceFile = "file"
)

// Store holds the authenticated identity and bearer token.
type Store struct {
	mu       sync.Mutex
	dir      string
	token    string
	email    string
	source   string
	restored bool
}

// NewStore creates a session store rooted at the given credentials dir.
// Call Restore before reading session state.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Restore hydrates the session from the environment or the stored pair.
// It is idempotent: calling it again with unchanged storage yields the same
// session. A missing or partial pair leaves the store logged out.
func (s *Store) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.restored = true }()

	// env override wins, mirroring the stored pair rule: both or neither
	envToken := strings.TrimSpace(os.Getenv(EnvToken))
	envEmail := strings.TrimSpace(os.Getenv(EnvEmail))
	if envToken != "" && envEmail != "" {
		s.token = stripBearer(envToken)
		s.email = envEmail
		s.source = SourceEnv
		return nil
	}

	token, err := readEntry(filepath.Join(s.dir, tokenFileName))
	if err != nil {
		return err
	}
	email, err := readEntry(filepath.Join(s.dir, emailFileName))
	if err != nil {
		return err
	}
	if token == "" || email == "" {
		s.token, s.email, s.source = "", "", SourceNone
		return nil
	}
	s.token = stripBearer(token)
	s.email = email
	s.source = SourceFile
	return nil
}

// Loading reports whether Restore has not yet completed. Callers deciding
// between the authenticated and anonymous views must wait for false.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.restored
}

// Login persists the token/email pair and makes it the live session.
// It performs no server round-trip; the caller has already exchanged
// credentials for the token.
func (s *Store) Login(token, email string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return errors.New("empty token")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("empty email")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// Write the pair together; roll the first file back if the second
	// write fails so a partial pair never lands on disk.
	tokenPath := filepath.Join(s.dir, tokenFileName)
	emailPath := filepath.Join(s.dir, emailFileName)
	if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.WriteFile(emailPath, []byte(email), 0o600); err != nil {
		_ = os.Remove(tokenPath)
		return fmt.Errorf("write email: %w", err)
	}

	s.token = token
	s.email = email
	s.source = SourceFile
	s.restored = true
	return nil
}

// Logout clears the stored pair and the in-memory session. Purely local:
// no revocation call is made. An env-sourced session only clears memory.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source != SourceEnv {
		if err := removeEntry(filepath.Join(s.dir, tokenFileName)); err != nil {
			return err
		}
		if err := removeEntry(filepath.Join(s.dir, emailFileName)); err != nil {
			return err
		}
	}
	s.token, s.email, s.source = "", "", SourceNone
	s.restored = true
	return nil
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Identity returns the signed-in user. ok is false when logged out.
func (s *Store) Identity() (id model.Identity, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return model.Identity{}, false
	}
	return model.Identity{ID: "local", Email: s.email}, true
}

// Authenticated reports whether a live credential is held.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Source reports where the live credential came from: "env", "file" or "".
func (s *Store) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func readEntry(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(string(b)), nil
}

func removeEntry(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
