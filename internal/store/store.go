// Package store persists the logged-in identity between runs: mobile
// number, bearer token and the cached display name. It is the only
// client-side persistence in the product — a flat key-value file, no
// expiry, cleared as a whole on logout.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Recognized keys. Arbitrary keys are rejected so a typo cannot create a
// phantom entry that survives logout.
const (
	KeyMobile   = "mobile"
	KeyToken    = "token"
	KeyUserName = "userName"
	KeyClientID = "clientId"
)

var knownKeys = map[string]bool{
	KeyMobile:   true,
	KeyToken:    true,
	KeyUserName: true,
	KeyClientID: true,
}

// Store is a file-backed key-value store for the login session. All
// methods are safe for concurrent use. The zero value is not usable;
// create one with Open.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// Open loads the store from path, creating an empty store if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: map[string]string{},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return s, nil
}

// Set stores value under key and persists the change.
func (s *Store) Set(key, value string) error {
	if !knownKeys[key] {
		return fmt.Errorf("unknown store key %q", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Get returns the value for key and whether it is present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	return v, ok && v != ""
}

// Clear removes every key. Subsequent Gets return absent for all keys.
// Triggered only by logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = map[string]string{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// Mobile returns the stored mobile number, if logged in.
func (s *Store) Mobile() (string, bool) { return s.Get(KeyMobile) }

// Token returns the stored bearer token, if logged in.
func (s *Store) Token() (string, bool) { return s.Get(KeyToken) }

// UserName returns the cached display name.
func (s *Store) UserName() (string, bool) { return s.Get(KeyUserName) }

// ClientID returns a stable installation id, generating and persisting
// one on first use. It survives logout only until Clear removes it; a
// fresh id after logout is fine since it identifies an anonymous install.
func (s *Store) ClientID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.data[KeyClientID]; id != "" {
		return id, nil
	}
	id := uuid.NewString()
	s.data[KeyClientID] = id
	if err := s.save(); err != nil {
		return "", err
	}
	return id, nil
}

// save writes the data atomically: temp file in the same directory, then
// rename. Callers must hold s.mu.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
