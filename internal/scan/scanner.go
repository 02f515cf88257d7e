// Package scan searches seed ranges for galaxies matching a rule and
// delivers the results to clients and notifiers.
package scan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/worldgen"
)

// Request describes one scan. End is inclusive.
type Request struct {
	Game        worldgen.GameDesc `json:"game"`
	Rule        rules.Definition  `json:"rule"`
	Start       int32             `json:"start"`
	End         int32             `json:"end"`
	Concurrency int               `json:"concurrency"`
}

// Validate checks the request and its rule before any generation starts.
func (r Request) Validate() error {
	if r.Start == math.MinInt32 {
		return worldgen.ErrInvalidSeed
	}
	if r.Start > r.End {
		return fmt.Errorf("invalid seed range [%d, %d]", r.Start, r.End)
	}
	if r.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", r.Concurrency)
	}
	game := r.Game
	game.Seed = r.Start
	if err := game.Validate(); err != nil {
		return err
	}
	return rules.Validate(r.Rule)
}

// Size is the number of seeds in the range.
func (r Request) Size() int64 {
	return int64(r.End) - int64(r.Start) + 1
}

// Sink receives scan events. Calls are serialized. An error from the sink
// stops the scan.
type Sink func(Event) error

// Summary describes a finished run.
type Summary struct {
	Start     int64         `json:"start"`
	Watermark int64         `json:"watermark"`
	Scanned   int64         `json:"scanned"`
	Matches   int64         `json:"matches"`
	Stopped   bool          `json:"stopped"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Scanner runs seed range scans. Stop ends every run in progress and any
// later run, so use one Scanner per scan session.
type Scanner struct {
	catalog   *worldgen.Catalog
	logger    Logger
	batchSize int
	stopped   atomic.Bool
}

// NewScanner returns a scanner generating galaxies from catalog (nil for
// the built-in one).
func NewScanner(catalog *worldgen.Catalog, logger Logger) *Scanner {
	return &Scanner{
		catalog:   catalog,
		logger:    orNoOp(logger),
		batchSize: DefaultBatchSize,
	}
}

// SetBatchSize changes how often progress is reported.
func (s *Scanner) SetBatchSize(n int) {
	s.batchSize = n
}

// Stop asks the workers to finish their current seed and exit.
func (s *Scanner) Stop() {
	s.stopped.Store(true)
}

func (s *Scanner) Stopped() bool {
	return s.stopped.Load()
}

// Run scans req's seed range with min(Concurrency, range size) workers.
// Workers pull seeds from a shared cursor, compile their own rule tree
// and build their own galaxies. Exactly one Done event is sent per run,
// after every worker has exited.
func (s *Scanner) Run(ctx context.Context, req Request, sink Sink) (Summary, error) {
	if err := req.Validate(); err != nil {
		return Summary{}, err
	}
	if _, err := rules.Compile(req.Rule); err != nil {
		return Summary{}, err
	}

	started := time.Now()
	workers := min(int64(req.Concurrency), req.Size())
	tracker := NewProgressTracker(int64(req.Start), s.batchSize)

	var (
		cursor  atomic.Int64
		scanned atomic.Int64
		matches atomic.Int64
		sendMu  sync.Mutex
	)
	cursor.Store(int64(req.Start))

	send := func(ev Event) error {
		sendMu.Lock()
		defer sendMu.Unlock()
		return sink(ev)
	}
	complete := func(seed int64) error {
		sendMu.Lock()
		defer sendMu.Unlock()
		if p, ok := tracker.Add(seed); ok {
			return sink(ProgressEvent(p))
		}
		return nil
	}

	s.logger.Infof("scan [%d, %d] started: %s seeds on %d workers",
		req.Start, req.End, humanize.Comma(req.Size()), workers)

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			rule, err := rules.Compile(req.Rule)
			if err != nil {
				return err
			}
			desc := req.Game
			for {
				seed := cursor.Add(1) - 1
				if seed > int64(req.End) {
					return nil
				}
				desc.Seed = int32(seed)
				indexes, err := rules.FindStarsForDesc(desc, s.catalog, rule)
				if err != nil {
					return fmt.Errorf("seed %d: %w", seed, err)
				}
				scanned.Add(1)
				if len(indexes) > 0 {
					matches.Add(1)
					if err := send(FoundEvent(desc.Seed, indexes)); err != nil {
						return fmt.Errorf("send match: %w", err)
					}
				}
				if err := complete(seed); err != nil {
					return fmt.Errorf("send progress: %w", err)
				}
				if s.stopped.Load() || gctx.Err() != nil {
					return nil
				}
			}
		})
	}
	runErr := g.Wait()

	summary := Summary{
		Start:     int64(req.Start),
		Watermark: tracker.Watermark(),
		Scanned:   scanned.Load(),
		Matches:   matches.Load(),
		Stopped:   tracker.Watermark() <= int64(req.End),
		Elapsed:   time.Since(started),
	}
	if err := send(DoneEvent(tracker.Unreported())); err != nil && runErr == nil {
		runErr = fmt.Errorf("send done: %w", err)
	}

	rate := float64(summary.Scanned) / max(summary.Elapsed.Seconds(), 1e-9)
	s.logger.Infof("scan [%d, %d] finished: %s seeds, %s matches in %s (%s seeds/s)",
		req.Start, req.End, humanize.Comma(summary.Scanned), humanize.Comma(summary.Matches),
		summary.Elapsed.Round(time.Millisecond), humanize.CommafWithDigits(rate, 1))

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		s.logger.Errorf("scan [%d, %d] failed: %v", req.Start, req.End, runErr)
		return summary, runErr
	}
	return summary, nil
}
