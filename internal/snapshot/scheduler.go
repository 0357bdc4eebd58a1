// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/railwise/railwise/internal/store"
)

// DefaultRefreshInterval is how often the scheduler refreshes.
const DefaultRefreshInterval = time.Minute

// Scheduler keeps snapshots warm by refreshing on a fixed interval. It has
// no read-path responsibilities.
type Scheduler struct {
	refresher SnapshotRefresher
	interval  time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler creates a Scheduler. interval <= 0 uses
// DefaultRefreshInterval.
func NewScheduler(refresher SnapshotRefresher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{refresher: refresher, interval: interval}
}

// Start begins the refresh loop. The first refresh runs immediately. Calling
// Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop ends the refresh loop and waits for an in-flight refresh to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	snap, err := s.refresher.Refresh(ctx, store.SourceCron)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("scheduled status refresh failed", "error", err)
		return
	}
	slog.Info("scheduled status refresh", "snapshot_id", snap.ID, "lines", len(snap.Payload))
}
