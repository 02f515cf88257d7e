package scan

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket")
	Type() string

	// Notify delivers one scan event. The context carries the delivery
	// deadline.
	Notify(ctx context.Context, event Event) error

	// Close closes the notifier and releases any resources
	Close() error
}

// NotifierInfo describes a registered notifier.
type NotifierInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type dispatchJob struct {
	event       Event
	notifierIDs []string
}

// Dispatcher routes scan events to registered notifiers through an async
// job queue with retry and exponential backoff.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan dispatchJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger

	maxRetries int
	backoff    time.Duration
}

// NewDispatcher starts a dispatcher with the given number of delivery
// workers.
func NewDispatcher(workers int, logger Logger) *Dispatcher {
	d := &Dispatcher{
		notifiers:  make(map[string]Notifier),
		jobs:       make(chan dispatchJob, 1024),
		logger:     orNoOp(logger),
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
	}
	d.startWorkers(max(workers, 1))
	return d
}

// Register adds a notifier. IDs must be unique.
func (d *Dispatcher) Register(n Notifier) error {
	if n == nil {
		return fmt.Errorf("notifier cannot be nil")
	}
	id := n.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("dispatcher is closed")
	}
	if _, exists := d.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}
	d.notifiers[id] = n
	return nil
}

// Unregister closes and removes a notifier.
func (d *Dispatcher) Unregister(id string) error {
	d.mu.Lock()
	n, exists := d.notifiers[id]
	delete(d.notifiers, id)
	d.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := n.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

func (d *Dispatcher) Get(id string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[id]
	return n, ok
}

// List returns the registered notifiers ordered by id.
func (d *Dispatcher) List() []NotifierInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]NotifierInfo, 0, len(d.notifiers))
	for id, n := range d.notifiers {
		out = append(out, NotifierInfo{ID: id, Type: n.Type()})
	}
	slices.SortFunc(out, func(a, b NotifierInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Publish enqueues event for every registered notifier.
func (d *Dispatcher) Publish(event Event) {
	d.mu.RLock()
	ids := make([]string, 0, len(d.notifiers))
	for id := range d.notifiers {
		ids = append(ids, id)
	}
	d.mu.RUnlock()
	d.Enqueue(event, ids)
}

// Enqueue queues event for the given notifiers. It never blocks: when the
// queue is full the event is dropped.
func (d *Dispatcher) Enqueue(event Event, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.jobs <- dispatchJob{event: event, notifierIDs: notifierIDs}:
	default:
		d.logger.Warnf("notification queue full, dropping %s event of scan %s", event.Type, event.ScanID)
	}
}

func (d *Dispatcher) startWorkers(n int) {
	for range n {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.dispatch(job)
	}
}

func (d *Dispatcher) dispatch(job dispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, id := range job.notifierIDs {
		d.notifyWithRetry(ctx, id, job.event)
	}
}

func (d *Dispatcher) notifyWithRetry(ctx context.Context, notifierID string, event Event) {
	n, ok := d.Get(notifierID)
	if !ok {
		d.logger.Warnf("notification failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	backoff := d.backoff
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		err := n.Notify(ctx, event)
		if err == nil {
			return
		}
		d.logger.Warnf("notification failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)
		if attempt == d.maxRetries {
			d.logger.Errorf("notification failed after %d attempts: notifier=%s", d.maxRetries+1, notifierID)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close drains the queue, then closes every notifier.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()

	d.mu.Lock()
	var errs []error
	for id, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	d.notifiers = make(map[string]Notifier)
	d.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}
	return nil
}
