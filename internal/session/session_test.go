package session

import (
	"testing"

	"finly/internal/core"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()

	if _, ok := m.Current(); ok {
		t.Fatal("fresh manager reported a current user")
	}

	m.Set(core.User{ID: 1, Name: "Ana", Email: "ana@x.com"})
	current, ok := m.Current()
	if !ok || current.ID != 1 || current.Name != "Ana" {
		t.Fatalf("current = %+v ok=%v", current, ok)
	}

	m.Clear()
	if _, ok := m.Current(); ok {
		t.Fatal("cleared manager still reports a user")
	}
}

func TestManagerStoresSnapshot(t *testing.T) {
	m := NewManager()

	u := core.User{ID: 1, Name: "Ana"}
	m.Set(u)

	// Mutating the caller's copy must not leak into the session.
	u.Name = "Changed"
	current, _ := m.Current()
	if current.Name != "Ana" {
		t.Fatalf("session user mutated through caller copy: %+v", current)
	}
}
