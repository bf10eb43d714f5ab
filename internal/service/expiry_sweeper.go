package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/logger"
)

// EscrowExpirer expires overdue escrows in bulk.
type EscrowExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ExpirySweeper periodically expires overdue escrows so stored status tracks
// the clock for escrows nobody opens. Lazy expiry on access still applies.
type ExpirySweeper struct {
	expirer  EscrowExpirer
	interval time.Duration
}

func NewExpirySweeper(expirer EscrowExpirer, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{expirer: expirer, interval: interval}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Entry().WithError(err).Error("expiry sweeper: sweep failed")
		}
		return
	}
	if n > 0 {
		logger.Entry().WithFields(logrus.Fields{"expired": n}).Info("expiry sweeper: escrows expired")
	}
}
