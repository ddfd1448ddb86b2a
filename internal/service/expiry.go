package service

import (
	"context"
	"log"
	"sync"
	"time"

	"labtrade-api/internal/notifier"
	"labtrade-api/internal/repository"
)

// ExpiryConfig holds configuration for the expiry sweeper.
type ExpiryConfig struct {
	// SweepInterval is how often the sweep runs.
	// Default: 10 minutes
	SweepInterval time.Duration
}

// DefaultExpiryConfig returns default expiry sweeper configuration.
func DefaultExpiryConfig() ExpiryConfig {
	return ExpiryConfig{
		SweepInterval: 10 * time.Minute,
	}
}

// ExpirySweeper periodically transitions stale pending/viewed requests to
// expired. Reads also expire lazily, so the sweeper only exists to move
// requests nobody is looking at.
type ExpirySweeper struct {
	repo      repository.ExchangeRepository
	sink      notifier.Notifier
	config    ExpiryConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewExpirySweeper creates a new expiry sweeper.
func NewExpirySweeper(repo repository.ExchangeRepository, sink notifier.Notifier, config ExpiryConfig) *ExpirySweeper {
	if config.SweepInterval == 0 {
		config.SweepInterval = 10 * time.Minute
	}
	if sink == nil {
		sink = notifier.NewLogNotifier()
	}

	return &ExpirySweeper{
		repo:   repo,
		sink:   sink,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the expiry sweeper.
func (s *ExpirySweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.SweepInterval)
	s.mu.Unlock()

	log.Printf("[ExpirySweeper] Started - Interval: %v", s.config.SweepInterval)

	go s.run()
}

// run is the main sweep loop.
func (s *ExpirySweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSweep()
		case <-s.stopCh:
			log.Printf("[ExpirySweeper] Stopped")
			return
		}
	}
}

// runSweep performs the actual sweep.
func (s *ExpirySweeper) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expired, err := s.repo.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[ExpirySweeper] Error during sweep: %v", err)
		return
	}

	for _, req := range expired {
		event := notifier.Event{
			RequestID:     req.ID,
			RequestNumber: req.RequestNumber,
			Type:          notifier.EventExpired,
			InitiatorID:   req.InitiatorID,
			ResponderID:   req.ResponderID,
			TargetItemID:  req.TargetItemID,
			OccurredAt:    req.UpdatedAt,
		}
		if err := s.sink.Notify(ctx, event); err != nil {
			log.Printf("[ExpirySweeper] Failed to notify expiry of %s: %v", req.ID, err)
		}
	}

	if len(expired) > 0 {
		log.Printf("[ExpirySweeper] Expired %d stale requests", len(expired))
	}
}

// Stop stops the expiry sweeper.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate sweep.
func (s *ExpirySweeper) RunNow() {
	s.runSweep()
}
