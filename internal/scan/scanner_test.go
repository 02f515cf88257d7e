package scan

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/worldgen"
)

var blackHoleRule = rules.Definition{
	Type:      rules.KindStarType,
	StarTypes: []worldgen.StarType{worldgen.BlackHole},
}

// recorder is a Sink that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) sink(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func TestScanner_MatchesSingleSeedSearch(t *testing.T) {
	req := Request{
		Game:        worldgen.NewGameDesc(0),
		Rule:        blackHoleRule,
		Start:       0,
		End:         99,
		Concurrency: 4,
	}
	rec := &recorder{}
	summary, err := NewScanner(nil, nil).Run(context.Background(), req, rec.sink)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Scanned != 100 || summary.Stopped {
		t.Errorf("Expected 100 seeds scanned to completion, got %+v", summary)
	}
	if summary.Watermark != 100 {
		t.Errorf("Expected watermark 100, got %d", summary.Watermark)
	}

	found := make(map[int32][]int)
	for _, ev := range rec.ofType(EventFound) {
		if _, dup := found[ev.Seed]; dup {
			t.Errorf("Expected seed %d reported once", ev.Seed)
		}
		found[ev.Seed] = ev.Indexes
	}

	// Verify every seed against an independent single-seed search
	for seed := int32(0); seed < 100; seed++ {
		rule, err := rules.Compile(blackHoleRule)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		desc := worldgen.NewGameDesc(seed)
		want, err := rules.FindStarsForDesc(desc, nil, rule)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		got, ok := found[seed]
		if len(want) == 0 {
			if ok {
				t.Errorf("Expected no match for seed %d, got %v", seed, got)
			}
			continue
		}
		if !slices.Equal(got, want) {
			t.Errorf("Expected seed %d to match %v, got %v", seed, want, got)
		}
	}
	if int64(len(found)) != summary.Matches {
		t.Errorf("Expected %d matches in summary, got %d", len(found), summary.Matches)
	}
}

func TestScanner_ProgressIsContiguous(t *testing.T) {
	s := NewScanner(nil, nil)
	s.SetBatchSize(10)
	req := Request{Game: worldgen.NewGameDesc(0), Rule: rules.Definition{Type: rules.KindOr}, Start: 5, End: 59, Concurrency: 3}
	rec := &recorder{}
	if _, err := s.Run(context.Background(), req, rec.sink); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	next := int64(5)
	for _, ev := range rec.ofType(EventProgress) {
		if ev.Start != next {
			t.Errorf("Expected progress to start at %d, got %d", next, ev.Start)
		}
		if ev.End-ev.Start < 10 {
			t.Errorf("Expected at least 10 seeds per report, got [%d, %d)", ev.Start, ev.End)
		}
		next = ev.End
	}
	if len(rec.ofType(EventProgress)) == 0 {
		t.Error("Expected progress reports")
	}

	done := rec.ofType(EventDone)
	if len(done) != 1 {
		t.Fatalf("Expected exactly 1 done event, got %d", len(done))
	}
	if done[0].Start != next || done[0].End != 60 {
		t.Errorf("Expected done [%d, 60), got [%d, %d)", next, done[0].Start, done[0].End)
	}
	if len(rec.ofType(EventFound)) != 0 {
		t.Error("Expected Or[] to match nothing")
	}

	rec.mu.Lock()
	last := rec.events[len(rec.events)-1]
	rec.mu.Unlock()
	if last.Type != EventDone {
		t.Errorf("Expected done to be the last event, got %s", last.Type)
	}
}

func TestScanner_Stop(t *testing.T) {
	s := NewScanner(nil, nil)
	req := Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 0, End: 1_000_000, Concurrency: 2}
	rec := &recorder{}
	summary, err := s.Run(context.Background(), req, func(ev Event) error {
		if ev.Type == EventFound {
			s.Stop()
		}
		return rec.sink(ev)
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !summary.Stopped || !s.Stopped() {
		t.Error("Expected summary to report a stop")
	}
	if summary.Scanned > 10 {
		t.Errorf("Expected workers to exit right after the stop, scanned %d", summary.Scanned)
	}
	if done := rec.ofType(EventDone); len(done) != 1 {
		t.Errorf("Expected exactly 1 done event, got %d", len(done))
	}
}

func TestScanner_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 0, End: 1_000_000, Concurrency: 2}
	rec := &recorder{}
	summary, err := NewScanner(nil, nil).Run(ctx, req, func(ev Event) error {
		cancel()
		return rec.sink(ev)
	})
	if err != nil {
		t.Fatalf("Expected cancellation to end the scan without error, got: %v", err)
	}
	if !summary.Stopped {
		t.Error("Expected summary to report a stop")
	}
	if done := rec.ofType(EventDone); len(done) != 1 {
		t.Errorf("Expected exactly 1 done event, got %d", len(done))
	}
}

func TestScanner_SinkErrorEndsScan(t *testing.T) {
	broken := errors.New("connection reset")
	req := Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 0, End: 1_000_000, Concurrency: 3}
	summary, err := NewScanner(nil, nil).Run(context.Background(), req, func(ev Event) error {
		return broken
	})
	if !errors.Is(err, broken) {
		t.Fatalf("Expected sink error, got: %v", err)
	}
	if !summary.Stopped {
		t.Error("Expected the scan to stop early")
	}
}

func TestScanner_RejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"inverted range", Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 10, End: 1, Concurrency: 1}},
		{"no workers", Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 0, End: 1, Concurrency: 0}},
		{"min seed", Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: -2147483648, End: 1, Concurrency: 1}},
		{"bad rule", Request{Game: worldgen.NewGameDesc(0), Rule: rules.Definition{Type: rules.KindLuminosity}, Start: 0, End: 1, Concurrency: 1}},
		{"bad game", Request{Game: worldgen.GameDesc{StarCount: 0, ResourceMultiplier: 1}, Rule: blackHoleRule, Start: 0, End: 1, Concurrency: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			if _, err := NewScanner(nil, nil).Run(context.Background(), tt.req, rec.sink); err == nil {
				t.Error("Expected error")
			}
			if len(rec.events) != 0 {
				t.Errorf("Expected no events for a rejected request, got %d", len(rec.events))
			}
		})
	}
}

func TestScanner_WorkersCappedByRange(t *testing.T) {
	req := Request{Game: worldgen.NewGameDesc(0), Rule: blackHoleRule, Start: 7, End: 7, Concurrency: 16}
	rec := &recorder{}
	summary, err := NewScanner(nil, nil).Run(context.Background(), req, rec.sink)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Scanned != 1 {
		t.Errorf("Expected a single seed scanned, got %d", summary.Scanned)
	}
	done := rec.ofType(EventDone)
	if len(done) != 1 || done[0].Start != 7 || done[0].End != 8 {
		t.Errorf("Expected done [7, 8), got %+v", done)
	}
}
