package rules

type verdict int8

const (
	unknown verdict = iota
	accepted
	rejected
)

// Evaluation tracks a tri-state verdict per star. Every star at or past
// the frontier is decided, so leaf rules only walk the prefix below it.
type Evaluation struct {
	items  []verdict
	maxLen int
}

// NewEvaluation returns an evaluation with n undecided stars.
func NewEvaluation(n int) *Evaluation {
	return &Evaluation{items: make([]verdict, n), maxLen: n}
}

// Clone returns an independent copy.
func (e *Evaluation) Clone() *Evaluation {
	items := make([]verdict, len(e.items))
	copy(items, e.items)
	return &Evaluation{items: items, maxLen: e.maxLen}
}

// Len is the frontier: one past the last undecided star.
func (e *Evaluation) Len() int {
	return e.maxLen
}

// Size is the number of stars tracked.
func (e *Evaluation) Size() int {
	return len(e.items)
}

func (e *Evaluation) IsKnown(index int) bool {
	return e.items[index] != unknown
}

func (e *Evaluation) IsUnknown(index int) bool {
	return e.items[index] == unknown
}

func (e *Evaluation) IsDone() bool {
	return e.maxLen == 0
}

func (e *Evaluation) loadMaxLen() {
	for e.maxLen > 0 && e.items[e.maxLen-1] != unknown {
		e.maxLen--
	}
}

// ConfirmMany accepts every undecided star in indices.
func (e *Evaluation) ConfirmMany(indices []int) {
	for _, i := range indices {
		if e.items[i] == unknown {
			e.items[i] = accepted
		}
	}
	e.loadMaxLen()
}

// RejectOthers rejects every undecided star not in indices.
func (e *Evaluation) RejectOthers(indices []int) {
	keep := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		keep[i] = struct{}{}
	}
	for i, v := range e.items {
		if v != unknown {
			continue
		}
		if _, ok := keep[i]; !ok {
			e.items[i] = rejected
		}
	}
	e.loadMaxLen()
}

// CollectKnown returns the accepted stars in index order.
func (e *Evaluation) CollectKnown() []int {
	out := []int{}
	for i, v := range e.items {
		if v == accepted {
			out = append(out, i)
		}
	}
	return out
}

// CollectUnknown returns every star not rejected, in index order.
func (e *Evaluation) CollectUnknown() []int {
	out := []int{}
	for i, v := range e.items {
		if v != rejected {
			out = append(out, i)
		}
	}
	return out
}
