package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taomall/marketplace-backend/internal/vouchers"
	"github.com/taomall/marketplace-backend/pkg/db/dbtest"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	"github.com/taomall/marketplace-backend/pkg/outbox"
)

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeleteProcessedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestOutboxRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakePruner{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger(), Repository: repo, RetentionDays: 7})
	require.NoError(t, err)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -7), repo.cutoff)
	assert.Equal(t, "outbox-retention", job.Name())
}

func TestOutboxRetentionDefaultsAndErrors(t *testing.T) {
	repo := &fakePruner{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger(), Repository: repo})
	require.NoError(t, err)
	assert.Equal(t, defaultOutboxRetentionDays, job.(*outboxRetentionJob).days)
	require.Error(t, job.Run(context.Background()))

	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger()})
	require.Error(t, err)
}

func TestMaintenanceJobsAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	outboxRepo := outbox.NewRepository(conn)

	old := time.Now().UTC().AddDate(0, 0, -40)
	published := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		PublishedAt:   &old,
	}
	require.NoError(t, outboxRepo.Insert(conn, published))

	retention, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger(), Repository: outboxRepo})
	require.NoError(t, err)
	expiry, err := NewVoucherExpiryJob(testLogger(), vouchers.NewRepository(conn))
	require.NoError(t, err)

	for _, job := range []Job{retention, expiry} {
		require.NoError(t, job.Run(ctx), job.Name())
	}

	var remaining int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
