// Package scheduler runs the periodic silent-sync check in the background.
package scheduler

import (
	"context"
	"sync"
	"time"

	"newsdeck/internal/logger"
	"newsdeck/internal/service"
)

type Scheduler struct {
	syncService service.SyncService
	interval    time.Duration
	stopCh      chan struct{}
	wg          sync.WaitGroup
	cancelFunc  context.CancelFunc // cancels the current check
	mu          sync.Mutex         // protects cancelFunc
}

func New(syncService service.SyncService, interval time.Duration) *Scheduler {
	return &Scheduler{
		syncService: syncService,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "module", "scheduler", "action", "sync", "resource", "settings", "result", "ok", "interval_ms", s.interval.Milliseconds())
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	logger.Info("scheduler stopped", "module", "scheduler", "action", "sync", "resource", "settings", "result", "ok")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.check()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) check() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	if err := s.syncService.CheckAndSync(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Warn("sync check cancelled", "module", "scheduler", "action", "sync", "resource", "settings", "result", "cancelled")
			return
		}
		logger.Error("sync check failed", "module", "scheduler", "action", "sync", "resource", "settings", "result", "failed", "error", err)
	}
}
