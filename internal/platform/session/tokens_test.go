package session

import (
	"testing"

	"github.com/google/uuid"
)

func TestMemoryTokenStore(t *testing.T) {
	s := NewMemoryTokenStore()
	a, b := uuid.New(), uuid.New()

	if _, ok := s.Get(a); ok {
		t.Fatal("expected no token before Set")
	}

	s.Set(a, "tok-a")
	s.Set(b, "tok-b")
	if got, ok := s.Get(a); !ok || got != "tok-a" {
		t.Errorf("expected tok-a, got %q %v", got, ok)
	}

	s.Clear(a)
	if _, ok := s.Get(a); ok {
		t.Error("expected token to be cleared")
	}
	if got, _ := s.Get(b); got != "tok-b" {
		t.Errorf("sessions must not share tokens, got %q", got)
	}
}
