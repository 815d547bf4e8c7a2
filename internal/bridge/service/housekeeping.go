package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/metrics"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
)

// HousekeepingService periodically removes used and expired login tickets
// so the table does not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  *metrics.Metrics

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 10 minutes.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs a single pass and returns the number of rows removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.Interval)
	defer cancel()

	n, err := s.Store.LoginTickets().DeleteStaleLoginTickets(ctx, time.Now().UTC())
	if err != nil {
		s.Logger.Error("failed to delete stale login tickets", "error", err)
		return 0
	}

	s.Metrics.RecordHousekeepingDeleted(n)
	s.Logger.Debug("housekeeping cleanup completed", "login_tickets_deleted", n)
	return n
}
