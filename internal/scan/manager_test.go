package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daniacca/starseed/internal/store"
	"github.com/daniacca/starseed/internal/worldgen"
)

func newTestProfile(t *testing.T, m *Manager, start, end int32) store.Profile {
	t.Helper()
	p, err := m.Store().CreateProfile(context.Background(), store.Profile{
		Name:       "black holes",
		Game:       worldgen.NewGameDesc(0),
		Rule:       blackHoleRule,
		RangeStart: start,
		RangeEnd:   end,
	})
	if err != nil {
		t.Fatalf("Expected no error creating profile, got: %v", err)
	}
	return p
}

func waitScan(t *testing.T, m *Manager, id string) Info {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	info, err := m.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Expected scan to finish, got: %v", err)
	}
	return info
}

func TestManager_StartAndWait(t *testing.T) {
	m := NewManager(ManagerOptions{})
	defer m.Close()

	rec := &recorder{}
	info, err := m.Start(Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 0, End: 19, Concurrency: 2}, rec.sink)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if info.State != StateRunning {
		t.Errorf("Expected state running, got %s", info.State)
	}

	final := waitScan(t, m, info.ID)
	if final.State != StateDone {
		t.Errorf("Expected state done, got %s (%s)", final.State, final.Error)
	}
	if final.Watermark != 20 {
		t.Errorf("Expected watermark 20, got %d", final.Watermark)
	}
	if final.FinishedAt == nil {
		t.Error("Expected finish time to be set")
	}
	if int64(len(rec.ofType(EventFound))) != final.Matches {
		t.Errorf("Expected %d matches, got %d", len(rec.ofType(EventFound)), final.Matches)
	}

	// Verify events carry the scan id
	for _, ev := range rec.ofType(EventDone) {
		if ev.ScanID != info.ID {
			t.Errorf("Expected scan id %s, got %s", info.ID, ev.ScanID)
		}
	}
	if len(m.List()) != 1 {
		t.Errorf("Expected 1 scan listed, got %d", len(m.List()))
	}
}

func TestManager_RejectsInvalidRequest(t *testing.T) {
	m := NewManager(ManagerOptions{})
	defer m.Close()

	_, err := m.Start(Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 5, End: 1, Concurrency: 1}, nil)
	if err == nil {
		t.Error("Expected error for inverted range")
	}
	if len(m.List()) != 0 {
		t.Errorf("Expected no scan registered, got %d", len(m.List()))
	}
}

func TestManager_ClampsConcurrency(t *testing.T) {
	m := NewManager(ManagerOptions{MaxConcurrency: 2})
	defer m.Close()

	info, err := m.Start(Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 0, End: 3, Concurrency: 64}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if info.Request.Concurrency != 2 {
		t.Errorf("Expected concurrency 2, got %d", info.Request.Concurrency)
	}
	waitScan(t, m, info.ID)
}

func TestManager_RunProfileRecordsMatches(t *testing.T) {
	m := NewManager(ManagerOptions{BatchSize: 10})
	defer m.Close()
	ctx := context.Background()
	p := newTestProfile(t, m, 0, 49)

	info, err := m.RunProfile(ctx, p.ID, 4, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if info.ProfileID != p.ID {
		t.Errorf("Expected profile id %s, got %s", p.ID, info.ProfileID)
	}
	final := waitScan(t, m, info.ID)
	if final.State != StateDone {
		t.Fatalf("Expected state done, got %s (%s)", final.State, final.Error)
	}

	stored, err := m.Store().GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stored.Current != 50 {
		t.Errorf("Expected watermark 50, got %d", stored.Current)
	}
	if !stored.Complete() {
		t.Error("Expected profile to be complete")
	}
	matches, err := m.Store().ListMatches(ctx, p.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if int64(len(matches)) != final.Matches || stored.Found != final.Matches {
		t.Errorf("Expected %d matches stored, got %d (found %d)", final.Matches, len(matches), stored.Found)
	}

	if _, err := m.RunProfile(ctx, p.ID, 1, nil); !errors.Is(err, ErrProfileComplete) {
		t.Errorf("Expected ErrProfileComplete, got %v", err)
	}
}

func TestManager_RunProfileUnknown(t *testing.T) {
	m := NewManager(ManagerOptions{})
	defer m.Close()

	if _, err := m.RunProfile(context.Background(), "missing", 1, nil); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestManager_StopProfileAndResume(t *testing.T) {
	m := NewManager(ManagerOptions{BatchSize: 1})
	defer m.Close()
	ctx := context.Background()
	p := newTestProfile(t, m, 0, 1_000_000)

	release := make(chan struct{})
	info, err := m.RunProfile(ctx, p.ID, 2, func(ev Event) error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// A second run of the same profile is refused while the first is live
	if _, err := m.RunProfile(ctx, p.ID, 1, nil); !errors.Is(err, ErrScanRunning) {
		t.Errorf("Expected ErrScanRunning, got %v", err)
	}

	if err := m.StopProfile(p.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	close(release)
	final := waitScan(t, m, info.ID)
	if final.State != StateStopped {
		t.Errorf("Expected state stopped, got %s", final.State)
	}

	stored, err := m.Store().GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stored.Current != final.Watermark {
		t.Errorf("Expected stored watermark %d, got %d", final.Watermark, stored.Current)
	}
	if stored.Complete() {
		t.Error("Expected profile to be incomplete after a stop")
	}

	// Verify a new run resumes from the stored watermark
	resumed, err := m.RunProfile(ctx, p.ID, 1, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if int64(resumed.Request.Start) != stored.Current {
		t.Errorf("Expected resume at %d, got %d", stored.Current, resumed.Request.Start)
	}
	if err := m.Stop(resumed.ID); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	waitScan(t, m, resumed.ID)
}

func TestManager_UnknownScan(t *testing.T) {
	m := NewManager(ManagerOptions{})
	defer m.Close()

	if err := m.Stop("missing"); !errors.Is(err, ErrScanNotFound) {
		t.Errorf("Expected ErrScanNotFound, got %v", err)
	}
	if err := m.StopProfile("missing"); !errors.Is(err, ErrScanNotFound) {
		t.Errorf("Expected ErrScanNotFound, got %v", err)
	}
	if _, err := m.Wait(context.Background(), "missing"); !errors.Is(err, ErrScanNotFound) {
		t.Errorf("Expected ErrScanNotFound, got %v", err)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Expected no scan")
	}
}

func TestManager_PublishesToDispatcher(t *testing.T) {
	d := NewDispatcher(1, nil)
	defer d.Close()
	n := &mockNotifier{id: "mock"}
	d.Register(n)

	m := NewManager(ManagerOptions{Dispatcher: d})
	defer m.Close()

	info, err := m.Start(Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 0, End: 0, Concurrency: 1}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	final := waitScan(t, m, info.ID)

	// One Done plus one Found per match
	want := int(final.Matches) + 1
	waitFor(t, func() bool { return n.getNotifyCount() == want })
}
