package scan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/store"
	"github.com/daniacca/starseed/internal/worldgen"
)

var (
	ErrScanNotFound    = errors.New("scan not found")
	ErrScanRunning     = errors.New("scan already running")
	ErrProfileComplete = errors.New("profile already complete")
)

// State is the lifecycle stage of a scan.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateStopped State = "stopped"
	StateFailed  State = "failed"
)

// Info is a snapshot of one scan session.
type Info struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profileId,omitempty"`
	Request    Request    `json:"request"`
	State      State      `json:"state"`
	Watermark  int64      `json:"watermark"`
	Matches    int64      `json:"matches"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type session struct {
	info    Info
	scanner *Scanner
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager owns the running scans. Each scan has its own Scanner; events
// are recorded in the profile store when the scan belongs to a profile
// and published to the dispatcher.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	store          store.Store
	dispatcher     *Dispatcher
	catalog        *worldgen.Catalog
	logger         Logger
	maxConcurrency int
	batchSize      int
}

// ManagerOptions configures a Manager. Dispatcher and Catalog may be nil.
type ManagerOptions struct {
	Store          store.Store
	Dispatcher     *Dispatcher
	Catalog        *worldgen.Catalog
	Logger         Logger
	MaxConcurrency int
	BatchSize      int
}

func NewManager(opts ManagerOptions) *Manager {
	st := opts.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	return &Manager{
		sessions:       make(map[string]*session),
		store:          st,
		dispatcher:     opts.Dispatcher,
		catalog:        opts.Catalog,
		logger:         orNoOp(opts.Logger),
		maxConcurrency: opts.MaxConcurrency,
		batchSize:      opts.BatchSize,
	}
}

// Store returns the profile store scans write to.
func (m *Manager) Store() store.Store {
	return m.store
}

// Start validates req and launches it in the background. sink, when not
// nil, receives every event after it has been recorded.
func (m *Manager) Start(req Request, sink Sink) (Info, error) {
	return m.start(req, "", sink)
}

// RunProfile resumes a stored profile from its watermark.
func (m *Manager) RunProfile(ctx context.Context, profileID string, concurrency int, sink Sink) (Info, error) {
	p, err := m.store.GetProfile(ctx, profileID)
	if err != nil {
		return Info{}, err
	}
	if p.Complete() {
		return Info{}, ErrProfileComplete
	}
	if _, running := m.runningForProfile(profileID); running {
		return Info{}, ErrScanRunning
	}
	req := Request{
		Game:        p.Game,
		Rule:        p.Rule,
		Start:       int32(p.Current),
		End:         p.RangeEnd,
		Concurrency: concurrency,
	}
	return m.start(req, profileID, sink)
}

func (m *Manager) start(req Request, profileID string, sink Sink) (Info, error) {
	if m.maxConcurrency > 0 && req.Concurrency > m.maxConcurrency {
		req.Concurrency = m.maxConcurrency
	}
	if err := req.Validate(); err != nil {
		return Info{}, err
	}
	if _, err := rules.Compile(req.Rule); err != nil {
		return Info{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		info: Info{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			Request:   req,
			State:     StateRunning,
			Watermark: int64(req.Start),
			StartedAt: time.Now().UTC(),
		},
		scanner: NewScanner(m.catalog, m.logger),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if m.batchSize > 0 {
		sess.scanner.SetBatchSize(m.batchSize)
	}

	m.mu.Lock()
	if profileID != "" {
		for _, other := range m.sessions {
			if other.info.ProfileID == profileID && other.info.State == StateRunning {
				m.mu.Unlock()
				cancel()
				return Info{}, ErrScanRunning
			}
		}
	}
	m.sessions[sess.info.ID] = sess
	info := sess.info
	m.mu.Unlock()

	m.logger.Infof("scan %s started: seeds [%d, %d], %d workers", info.ID, req.Start, req.End, req.Concurrency)
	go m.run(ctx, sess, req, sink)
	return info, nil
}

func (m *Manager) run(ctx context.Context, sess *session, req Request, sink Sink) {
	defer close(sess.done)
	defer sess.cancel()

	id, profileID := sess.info.ID, sess.info.ProfileID
	// Store writes must land even after the scan context is cancelled.
	storeCtx := context.WithoutCancel(ctx)

	record := func(ev Event) error {
		ev.ScanID = id
		ev.ProfileID = profileID
		switch ev.Type {
		case EventFound:
			m.mu.Lock()
			sess.info.Matches++
			m.mu.Unlock()
			if profileID != "" {
				if err := m.store.AddMatch(storeCtx, profileID, ev.Seed, ev.Indexes); err != nil {
					return fmt.Errorf("record match: %w", err)
				}
			}
		case EventProgress, EventDone:
			m.mu.Lock()
			sess.info.Watermark = ev.End
			m.mu.Unlock()
			if profileID != "" {
				if err := m.store.UpdateProgress(storeCtx, profileID, ev.End); err != nil {
					return fmt.Errorf("record progress: %w", err)
				}
			}
		}
		if m.dispatcher != nil {
			m.dispatcher.Publish(ev)
		}
		if sink != nil {
			return sink(ev)
		}
		return nil
	}

	summary, err := sess.scanner.Run(ctx, req, record)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	sess.info.FinishedAt = &now
	sess.info.Watermark = summary.Watermark
	switch {
	case err != nil:
		sess.info.State = StateFailed
		sess.info.Error = err.Error()
		m.logger.Errorf("scan %s failed: %v", id, err)
	case summary.Stopped:
		sess.info.State = StateStopped
		m.logger.Infof("scan %s stopped at seed %d", id, summary.Watermark)
	default:
		sess.info.State = StateDone
		m.logger.Infof("scan %s done", id)
	}
}

func (m *Manager) runningForProfile(profileID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, s := range m.sessions {
		if s.info.ProfileID == profileID && s.info.State == StateRunning {
			return id, true
		}
	}
	return "", false
}

// Get returns a snapshot of one scan.
func (m *Manager) Get(id string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Info{}, false
	}
	return s.info, true
}

// List returns every known scan, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info)
	}
	slices.SortFunc(out, func(a, b Info) int { return a.StartedAt.Compare(b.StartedAt) })
	return out
}

// Stop asks a scan to finish its in-flight seeds and exit.
func (m *Manager) Stop(id string) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrScanNotFound
	}
	s.scanner.Stop()
	return nil
}

// StopProfile stops the running scan of a profile.
func (m *Manager) StopProfile(profileID string) error {
	id, ok := m.runningForProfile(profileID)
	if !ok {
		return ErrScanNotFound
	}
	return m.Stop(id)
}

// Wait blocks until the scan finishes or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Info, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Info{}, ErrScanNotFound
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return Info{}, ctx.Err()
	}
	info, _ := m.Get(id)
	return info, nil
}

// Close stops every scan and waits for them to exit.
func (m *Manager) Close() {
	m.mu.RLock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.scanner.Stop()
		s.cancel()
	}
	for _, s := range sessions {
		<-s.done
	}
}
