package worker

import (
	"context"
	"time"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/pkg/logger"
)

// OverdueSweeper periodically flips pending invoices past their due
// date to overdue.
type OverdueSweeper struct {
	repo     repository.InvoiceRepository
	interval time.Duration
	logger   *logger.Logger
}

func NewOverdueSweeper(repo repository.InvoiceRepository, interval time.Duration, logger *logger.Logger) *OverdueSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueSweeper{
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

func (s *OverdueSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting overdue invoice sweeper")
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down overdue invoice sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	today := time.Now().Format(model.DateLayout)
	n, err := s.repo.MarkOverdue(ctx, today)
	if err != nil {
		s.logger.Error(err, "failed to mark overdue invoices")
		return
	}
	if n > 0 {
		s.logger.Info("marked invoices overdue", "count", n)
	}
}
