package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockNotifier is a test implementation of Notifier
type mockNotifier struct {
	id          string
	notifyFunc  func(context.Context, Event) error
	closeFunc   func() error
	mu          sync.Mutex
	notifyCount int
	events      []Event
}

func (m *mockNotifier) ID() string   { return m.id }
func (m *mockNotifier) Type() string { return "mock" }
func (m *mockNotifier) Notify(ctx context.Context, event Event) error {
	m.mu.Lock()
	m.notifyCount++
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, event)
	}
	return nil
}
func (m *mockNotifier) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockNotifier) getNotifyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifyCount
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_Register(t *testing.T) {
	d := NewDispatcher(1, nil)
	defer d.Close()

	if err := d.Register(&mockNotifier{id: "a"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := d.Register(&mockNotifier{id: "a"}); err == nil {
		t.Error("Expected error for duplicate registration")
	}
	if err := d.Register(nil); err == nil {
		t.Error("Expected error for nil notifier")
	}
	if err := d.Register(&mockNotifier{id: ""}); err == nil {
		t.Error("Expected error for empty ID")
	}
	d.Register(&mockNotifier{id: "c"})
	d.Register(&mockNotifier{id: "b"})

	list := d.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 notifiers, got %d", len(list))
	}
	if list[0].ID != "a" || list[1].ID != "b" || list[2].ID != "c" {
		t.Errorf("Expected notifiers sorted by id, got %+v", list)
	}
	if list[0].Type != "mock" {
		t.Errorf("Expected type 'mock', got '%s'", list[0].Type)
	}
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher(1, nil)
	defer d.Close()

	if err := d.Unregister("missing"); err == nil {
		t.Error("Expected error for unknown notifier")
	}

	closed := false
	d.Register(&mockNotifier{id: "a", closeFunc: func() error { closed = true; return nil }})
	if err := d.Unregister("a"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !closed {
		t.Error("Expected notifier to be closed on unregister")
	}
	if _, ok := d.Get("a"); ok {
		t.Error("Expected notifier to be removed")
	}
}

func TestDispatcher_PublishReachesEveryNotifier(t *testing.T) {
	d := NewDispatcher(2, nil)
	defer d.Close()

	a := &mockNotifier{id: "a"}
	b := &mockNotifier{id: "b"}
	d.Register(a)
	d.Register(b)

	d.Publish(FoundEvent(42, []int{1, 2}))
	waitFor(t, func() bool { return a.getNotifyCount() == 1 && b.getNotifyCount() == 1 })

	a.mu.Lock()
	ev := a.events[0]
	a.mu.Unlock()
	if ev.Type != EventFound || ev.Seed != 42 {
		t.Errorf("Expected Found event for seed 42, got %+v", ev)
	}
}

func TestDispatcher_RetriesWithBackoff(t *testing.T) {
	d := NewDispatcher(1, nil)
	d.backoff = time.Millisecond
	defer d.Close()

	var attempts int
	var mu sync.Mutex
	flaky := &mockNotifier{id: "flaky", notifyFunc: func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}}
	d.Register(flaky)

	d.Enqueue(DoneEvent(Progress{Start: 0, End: 10}), []string{"flaky"})
	waitFor(t, func() bool { return flaky.getNotifyCount() == 3 })

	// Verify no further attempts after the success
	time.Sleep(20 * time.Millisecond)
	if n := flaky.getNotifyCount(); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
}

func TestDispatcher_GivesUpAfterMaxRetries(t *testing.T) {
	d := NewDispatcher(1, nil)
	d.backoff = time.Millisecond

	broken := &mockNotifier{id: "broken", notifyFunc: func(context.Context, Event) error {
		return errors.New("down")
	}}
	d.Register(broken)
	d.Enqueue(DoneEvent(Progress{}), []string{"broken"})

	// Close drains the queue before returning
	if err := d.Close(); err != nil {
		t.Fatalf("Expected no error on close, got %v", err)
	}
	if n := broken.getNotifyCount(); n != 4 {
		t.Errorf("Expected 4 attempts, got %d", n)
	}
}

func TestDispatcher_Close(t *testing.T) {
	d := NewDispatcher(1, nil)
	closed := 0
	d.Register(&mockNotifier{id: "a", closeFunc: func() error { closed++; return nil }})

	if err := d.Close(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if closed != 1 {
		t.Errorf("Expected notifier closed once, got %d", closed)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}

	// Enqueue after close is dropped silently
	d.Enqueue(FoundEvent(1, nil), []string{"a"})
	if err := d.Register(&mockNotifier{id: "b"}); err == nil {
		t.Error("Expected error registering on a closed dispatcher")
	}
}
