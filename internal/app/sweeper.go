package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlink/appointments/internal/notify"
	"github.com/tutorlink/appointments/internal/repository"
)

const expiredPendingReason = "expired before response"

// Sweeper runs the periodic cleanup tasks. Currently the only task cancels
// pending requests nobody answered before the session start and tells the
// owning chats about it.
type Sweeper struct {
	repo     *repository.AppointmentRepository
	notifier notify.Notifier
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewSweeper(repo *repository.AppointmentRepository, notifier notify.Notifier, interval time.Duration, logger *zap.Logger) *Sweeper {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting appointment sweeper", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop terminates the loop.
func (s *Sweeper) Stop() {
	s.logger.Info("Stopping appointment sweeper")
	close(s.stopChan)
}

func (s *Sweeper) run(ctx context.Context) {
	// first pass right at startup
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Appointment sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Appointment sweeper cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cancelled, err := s.repo.CancelExpiredPending(ctx, time.Now(), expiredPendingReason)
	if err != nil {
		s.logger.Error("Failed to cancel expired pending appointments", zap.Error(err))
		return
	}
	if len(cancelled) == 0 {
		return
	}

	s.logger.Info("Cancelled expired pending appointments", zap.Int("count", len(cancelled)))
	for _, a := range cancelled {
		s.notifier.AppointmentChanged(ctx, a, "Appointment request expired")
	}
}
