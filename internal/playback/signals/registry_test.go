package signals

import (
	"testing"
	"time"
)

func TestRegistry_RegisterResolve(t *testing.T) {
	r := NewRegistry()

	ch := r.Register("msg-1")
	if r.Pending() != 1 {
		t.Fatalf("expected 1 pending entry, got %d", r.Pending())
	}

	select {
	case <-ch:
		t.Fatal("channel resolved before Resolve was called")
	default:
	}

	r.Resolve("msg-1")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Resolve")
	}
	if r.Pending() != 0 {
		t.Errorf("expected entry removed after resolve, got %d pending", r.Pending())
	}
}

func TestRegistry_ResolveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()

	// Must not panic or create state
	r.Resolve("never-registered")
	if r.Pending() != 0 {
		t.Errorf("expected no pending entries, got %d", r.Pending())
	}

	ch := r.Register("msg-1")
	r.Resolve("msg-1")
	// Second resolve of the same id is also a no-op
	r.Resolve("msg-1")

	select {
	case <-ch:
	default:
		t.Fatal("channel should remain closed")
	}
}

func TestRegistry_RegisterSameIDReturnsSameChannel(t *testing.T) {
	r := NewRegistry()

	ch1 := r.Register("msg-1")
	ch2 := r.Register("msg-1")
	if ch1 != ch2 {
		t.Error("expected the same channel for a duplicate registration")
	}
	if r.Pending() != 1 {
		t.Errorf("expected a single pending entry, got %d", r.Pending())
	}
}

func TestRegistry_AbandonDropsEntries(t *testing.T) {
	r := NewRegistry()

	ch := r.Register("msg-1")
	r.Register("msg-2")
	r.Abandon()

	if r.Pending() != 0 {
		t.Fatalf("expected no pending entries after abandon, got %d", r.Pending())
	}

	// Resolving after abandon must not close the orphaned channel
	r.Resolve("msg-1")
	select {
	case <-ch:
		t.Error("abandoned channel must not resolve")
	default:
	}
}
