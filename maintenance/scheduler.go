// Package maintenance runs a periodic sweep over a vfs.Root: logging open
// file stats so an operator can see the in-memory VFS isn't leaking
// handles, since nothing here ever touches stable storage to show up in
// `du` or `lsof`.
package maintenance

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tinysqlio/memvfs/vfs"
)

// SweepFunc is run on every scheduled tick. It receives a context carrying
// a fixed 30-second timeout so long sweeps can be cancelled.
type SweepFunc func(ctx context.Context, root *vfs.Root) error

// Scheduler runs a single SweepFunc against a vfs.Root on either a cron
// schedule or a fixed interval, mirroring storage.Scheduler's two
// trigger kinds but for the one fixed job this package exists to run.
type Scheduler struct {
	root   *vfs.Root
	sweep  SweepFunc
	logger *log.Logger

	cron     *cron.Cron
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

// New builds a Scheduler. Exactly one of schedule (a robfig/cron
// seconds-included expression) or interval should be non-zero; if both
// are given, the cron schedule takes precedence, same as
// storage.Scheduler's CRON-over-INTERVAL preference.
func New(root *vfs.Root, schedule string, interval time.Duration, sweep SweepFunc, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Scheduler{
		root:     root,
		sweep:    sweep,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}

	if schedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
		}
		s.cron = cron.New(cron.WithLocation(time.UTC), cron.WithSeconds())
		if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
			return nil, fmt.Errorf("scheduling sweep: %w", err)
		}
	}

	return s, nil
}

// Start begins running the sweep job. It is safe to call once; calling it
// again before Stop is a programmer error.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		panic("maintenance: Scheduler already started")
	}
	s.running = true

	if s.cron != nil {
		s.cron.Start()
	}
	if s.interval > 0 && s.cron == nil {
		go s.runInterval()
	}
}

// Stop halts the scheduler, waiting for the cron executor to drain any
// in-flight tick.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	close(s.stopCh)
}

func (s *Scheduler) runInterval() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.sweep(ctx, s.root); err != nil {
		s.logger.Printf("maintenance: sweep failed: %v", err)
		return
	}
	s.logger.Printf("maintenance: sweep completed")
}
