package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/taomall/marketplace-backend/pkg/logger"
)

type voucherExpirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewVoucherExpiryJob switches off vouchers past their expiry so seller
// listings show them as inactive.
func NewVoucherExpiryJob(logg *logger.Logger, repo voucherExpirer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	return &voucherExpiryJob{logg: logg, repo: repo, now: time.Now}, nil
}

type voucherExpiryJob struct {
	logg *logger.Logger
	repo voucherExpirer
	now  func() time.Time
}

func (j *voucherExpiryJob) Name() string { return "voucher-expiry" }

func (j *voucherExpiryJob) Run(ctx context.Context) error {
	n, err := j.repo.DeactivateExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("voucher expiry: %w", err)
	}
	if n > 0 {
		j.logg.Info(j.logg.WithField(ctx, "vouchers_deactivated", n), "expired vouchers deactivated")
	}
	return nil
}
