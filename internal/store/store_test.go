package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetGetRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := s.Set(KeyMobile, "9876543210"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(KeyToken, "tok-123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := s.Get(KeyMobile)
	if !ok || got != "9876543210" {
		t.Errorf("Get(mobile) = %q, %v; want 9876543210, true", got, ok)
	}

	// A fresh Open must see the persisted values.
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	if tok, ok := reopened.Token(); !ok || tok != "tok-123" {
		t.Errorf("reopened Token() = %q, %v; want tok-123, true", tok, ok)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set("favouritePlanet", "saturn"); err == nil {
		t.Error("Set() with unknown key should fail")
	}
}

func TestClearRemovesAllKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	for _, k := range []string{KeyMobile, KeyToken, KeyUserName} {
		if err := s.Set(k, "value"); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	for _, k := range []string{KeyMobile, KeyToken, KeyUserName, KeyClientID} {
		if _, ok := s.Get(k); ok {
			t.Errorf("Get(%s) after Clear() = present, want absent", k)
		}
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("state file still exists after Clear()")
	}
}

func TestEmptyValueIsAbsent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set(KeyUserName, ""); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok := s.UserName(); ok {
		t.Error("empty value should read back as absent")
	}
}

func TestClientIDStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	first, err := s.ClientID()
	if err != nil {
		t.Fatalf("ClientID() error = %v", err)
	}
	if first == "" {
		t.Fatal("ClientID() returned empty id")
	}

	second, err := s.ClientID()
	if err != nil {
		t.Fatalf("ClientID() error = %v", err)
	}
	if first != second {
		t.Errorf("ClientID() not stable: %q then %q", first, second)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	third, err := reopened.ClientID()
	if err != nil {
		t.Fatalf("ClientID() after reopen error = %v", err)
	}
	if third != first {
		t.Errorf("ClientID() not persisted: %q then %q", first, third)
	}
}
