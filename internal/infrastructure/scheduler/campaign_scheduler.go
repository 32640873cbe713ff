// Package scheduler runs background jobs on a ticker.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/infrastructure/config"
)

// DueCampaignSender sends scheduled campaigns whose time has come
type DueCampaignSender interface {
	SendDueCampaigns(ctx context.Context, now time.Time, limit int) (int, error)
}

// CampaignScheduler periodically sends due campaigns
type CampaignScheduler struct {
	sender   DueCampaignSender
	logger   *zap.Logger
	interval time.Duration
	batch    int
	timeout  time.Duration
	enabled  bool
	now      func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCampaignScheduler creates a CampaignScheduler
func NewCampaignScheduler(cfg config.SchedulerConfig, sender DueCampaignSender, logger *zap.Logger) *CampaignScheduler {
	s := &CampaignScheduler{
		sender:   sender,
		logger:   logger,
		interval: cfg.CampaignInterval,
		batch:    cfg.BatchSize,
		timeout:  cfg.JobTimeout,
		enabled:  cfg.Enabled,
		now:      time.Now,
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}
	if s.batch <= 0 {
		s.batch = 20
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Minute
	}
	return s
}

// Start launches the ticker goroutine
func (s *CampaignScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.enabled {
		s.mu.Unlock()
		s.logger.Info("Campaign scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Campaign scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batch))
	return nil
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx
func (s *CampaignScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Campaign scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Campaign scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *CampaignScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *CampaignScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce sends one batch of due campaigns
func (s *CampaignScheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Campaign scheduler run panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	start := s.now()
	sent, err := s.sender.SendDueCampaigns(ctx, start, s.batch)
	if err != nil {
		s.logger.Error("Failed to send due campaigns", zap.Int("sent", sent), zap.Error(err))
		return
	}
	if sent > 0 {
		s.logger.Info("Sent due campaigns",
			zap.Int("campaigns", sent),
			zap.Duration("duration", time.Since(start)))
	}
}
