package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	matches  map[string]map[int32]Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		matches:  make(map[string]map[int32]Match),
	}
}

func (m *MemoryStore) CreateProfile(ctx context.Context, p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.Current = int64(p.RangeStart)
	p.Found = 0
	p.CreatedAt, p.UpdatedAt = now, now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	m.matches[p.ID] = make(map[int32]Match)
	return p, nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Profile) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) UpdateProgress(ctx context.Context, id string, current int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	if current > p.Current {
		p.Current = current
		p.UpdatedAt = time.Now().UTC()
		m.profiles[id] = p
	}
	return nil
}

func (m *MemoryStore) AddMatch(ctx context.Context, id string, seed int32, indexes []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	if _, dup := m.matches[id][seed]; dup {
		return nil
	}
	m.matches[id][seed] = Match{ProfileID: id, Seed: seed, Indexes: slices.Clone(indexes)}
	p.Found = int64(len(m.matches[id]))
	p.UpdatedAt = time.Now().UTC()
	m.profiles[id] = p
	return nil
}

func (m *MemoryStore) ListMatches(ctx context.Context, id string) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.profiles[id]; !ok {
		return nil, ErrProfileNotFound
	}
	out := make([]Match, 0, len(m.matches[id]))
	for _, match := range m.matches[id] {
		match.Indexes = slices.Clone(match.Indexes)
		out = append(out, match)
	}
	slices.SortFunc(out, func(a, b Match) int { return cmp.Compare(a.Seed, b.Seed) })
	return out, nil
}

func (m *MemoryStore) DeleteProfile(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return ErrProfileNotFound
	}
	delete(m.profiles, id)
	delete(m.matches, id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
