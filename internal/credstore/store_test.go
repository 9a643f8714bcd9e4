package credstore

import (
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	s := testStore{}
	const name = "ssh:/home/u/.ssh/id_rsa"
	const secret = "hunter2"

	if err := s.Set(name, secret); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(name)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != secret {
		t.Fatalf("want %q got %q", secret, got)
	}
	if err := s.Delete(name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(name); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAbsenceIsNotFound(t *testing.T) {
	s := testStore{}
	if _, err := s.Get("ssh:never-written"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOverwrite(t *testing.T) {
	s := testStore{}
	const name = "ssh:/home/u/.ssh/id_ed25519"

	if err := s.Set(name, "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(name, "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ := s.Get(name)
	if got != "second" {
		t.Fatalf("want %q got %q", "second", got)
	}
}
