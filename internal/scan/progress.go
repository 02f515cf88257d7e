package scan

import "sync"

// DefaultBatchSize is how far the watermark must advance between two
// progress reports.
const DefaultBatchSize = 1000

// Progress is the half-open seed range [Start, End).
type Progress struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// ProgressTracker turns out-of-order seed completions into a contiguous
// watermark. It is safe for concurrent use.
type ProgressTracker struct {
	mu        sync.Mutex
	batch     int64
	reported  int64
	watermark int64
	pending   map[int64]struct{}
}

// NewProgressTracker starts the watermark at start. A batch below 1 uses
// DefaultBatchSize.
func NewProgressTracker(start int64, batch int) *ProgressTracker {
	if batch < 1 {
		batch = DefaultBatchSize
	}
	return &ProgressTracker{
		batch:     int64(batch),
		reported:  start,
		watermark: start,
		pending:   make(map[int64]struct{}),
	}
}

// Add marks seed complete. When the watermark has moved at least one batch
// past the last report it returns the newly covered range and true.
func (t *ProgressTracker) Add(seed int64) (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seed != t.watermark {
		if seed > t.watermark {
			t.pending[seed] = struct{}{}
		}
		return Progress{}, false
	}
	t.watermark++
	for {
		if _, ok := t.pending[t.watermark]; !ok {
			break
		}
		delete(t.pending, t.watermark)
		t.watermark++
	}
	if t.watermark-t.reported < t.batch {
		return Progress{}, false
	}
	p := Progress{Start: t.reported, End: t.watermark}
	t.reported = t.watermark
	return p, true
}

// Watermark is the lowest seed not yet completed.
func (t *ProgressTracker) Watermark() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watermark
}

// Unreported returns the range completed since the last report.
func (t *ProgressTracker) Unreported() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Progress{Start: t.reported, End: t.watermark}
}

// Pending is the number of seeds completed above the watermark.
func (t *ProgressTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
