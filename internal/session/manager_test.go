package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable clock safe for use from the janitor goroutine.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestManager_OpenGetClose(t *testing.T) {
	obs := newCountingObserver()
	m := NewManager(ManagerOptions{Observer: obs})

	s := m.Open(v1)
	if s.ID() == "" {
		t.Fatal("expected a session id")
	}
	if len(s.Rows()) != 2 {
		t.Errorf("opened session should be seeded, got %d rows", len(s.Rows()))
	}

	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get() = (%p, %v), want (%p, nil)", got, err, s)
	}

	if !m.Close(s.ID()) {
		t.Error("Close on a live session should return true")
	}
	if m.Close(s.ID()) {
		t.Error("second Close should return false")
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after close: err = %v, want ErrSessionNotFound", err)
	}
	if obs.opened != 1 || obs.closed != 1 {
		t.Errorf("observer opened=%d closed=%d, want 1/1", obs.opened, obs.closed)
	}
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := NewManager(ManagerOptions{})
	a := m.Open(v1)
	b := m.Open(v1)

	a.AddRow()
	if len(a.Rows()) != 3 || len(b.Rows()) != 2 {
		t.Errorf("rows a=%d b=%d, want 3/2", len(a.Rows()), len(b.Rows()))
	}
	if a.Rows()[0].ID == b.Rows()[0].ID {
		t.Error("row ids shared across sessions")
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewManager(ManagerOptions{IdleTTL: 30 * time.Minute, Now: clock.Now})

	idle := m.Open(v1)
	active := m.Open(v1)

	clock.Advance(20 * time.Minute)
	active.AddRow()
	clock.Advance(15 * time.Minute)

	if n := m.Sweep(clock.Now()); n != 1 {
		t.Errorf("Sweep dropped %d sessions, want 1", n)
	}
	if _, err := m.Get(idle.ID()); err == nil {
		t.Error("idle session should be dropped")
	}
	if _, err := m.Get(active.ID()); err != nil {
		t.Error("active session should survive")
	}
}

func TestManager_SweepDisabled(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewManager(ManagerOptions{Now: clock.Now})
	m.Open(v1)
	clock.Advance(24 * time.Hour)

	if n := m.Sweep(clock.Now()); n != 0 {
		t.Errorf("Sweep with no TTL dropped %d sessions", n)
	}
}

func TestJanitor_Run(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewManager(ManagerOptions{IdleTTL: time.Minute, Now: clock.Now})
	m.Open(v1)
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	j := NewJanitor(m, 10*time.Millisecond, nil)
	go func() {
		j.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.Len() != 0 {
		t.Error("janitor did not expire the idle session")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
