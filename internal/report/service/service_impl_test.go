package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/clock"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/internal/report/domain"
	reportrepo "github.com/fixwell/backoffice/internal/report/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&jobdomain.Job{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  reportrepo.Provide(),
	})
	return &fixture{svc: svc, db: db, node: node, clock: fake}
}

func (f *fixture) insertCompleted(t *testing.T, completedAt time.Time, price, payout, platformFee float64, contractorID *snowflake.ID, payoutStatus jobdomain.PayoutStatus) jobdomain.Job {
	t.Helper()

	materials := 0.0
	processing := price - materials - payout - platformFee
	job := jobdomain.Job{
		ID:               f.node.Generate(),
		CustomerID:       f.node.Generate(),
		ContractorID:     contractorID,
		ServiceType:      "hvac",
		Status:           jobdomain.StatusCompleted,
		PaymentStatus:    jobdomain.PaymentPaid,
		PayoutStatus:     payoutStatus,
		FinalPrice:       &price,
		MaterialFees:     &materials,
		ProcessingFee:    &processing,
		PlatformFee:      &platformFee,
		ContractorPayout: &payout,
		CreatedAt:        completedAt,
		UpdatedAt:        completedAt,
		CompletedAt:      &completedAt,
	}
	if payoutStatus == jobdomain.PayoutPaid {
		job.PaidOutAt = &completedAt
	}
	require.NoError(t, f.db.Create(&job).Error)
	return job
}

func TestMonthToDateRevenue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	contractor := f.node.Generate()

	// Two jobs this month, one last month that must not count.
	f.insertCompleted(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), 100, 70, 20, &contractor, jobdomain.PayoutReady)
	f.insertCompleted(t, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), 200, 150, 40, &contractor, jobdomain.PayoutReady)
	f.insertCompleted(t, time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC), 500, 400, 80, &contractor, jobdomain.PayoutPaid)

	// Unpriced completions carry no money and are excluded.
	unpriced := jobdomain.Job{
		ID:          f.node.Generate(),
		CustomerID:  f.node.Generate(),
		ServiceType: "hvac",
		Status:      jobdomain.StatusCompleted,
		CreatedAt:   f.clock.Now(),
		UpdatedAt:   f.clock.Now(),
	}
	now := f.clock.Now()
	unpriced.CompletedAt = &now
	require.NoError(t, f.db.Create(&unpriced).Error)

	summary, err := f.svc.MonthToDateRevenue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.CompletedJobs)
	assert.InDelta(t, 300.0, summary.GrossRevenue, 0.001)
	assert.InDelta(t, 60.0, summary.PlatformFees, 0.001)
	assert.InDelta(t, 220.0, summary.ContractorPayouts, 0.001)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), summary.From)
}

func TestPendingPayoutsGroupedByContractor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	big := f.node.Generate()
	small := f.node.Generate()
	when := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)

	f.insertCompleted(t, when, 100, 70, 20, &big, jobdomain.PayoutReady)
	f.insertCompleted(t, when, 300, 220, 55, &big, jobdomain.PayoutReady)
	f.insertCompleted(t, when, 50, 35, 10, &small, jobdomain.PayoutReady)
	f.insertCompleted(t, when, 80, 60, 15, &small, jobdomain.PayoutPaid)

	groups, err := f.svc.PendingPayouts(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, big.String(), groups[0].ContractorID)
	assert.EqualValues(t, 2, groups[0].Jobs)
	assert.InDelta(t, 290.0, groups[0].TotalPayout, 0.001)

	assert.Equal(t, small.String(), groups[1].ContractorID)
	assert.EqualValues(t, 1, groups[1].Jobs)
	assert.InDelta(t, 35.0, groups[1].TotalPayout, 0.001)
}

func TestPayoutHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.node.Generate()
	second := f.node.Generate()

	older := f.insertCompleted(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), 100, 70, 20, &first, jobdomain.PayoutPaid)
	newer := f.insertCompleted(t, time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC), 200, 150, 40, &second, jobdomain.PayoutPaid)
	f.insertCompleted(t, time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC), 300, 220, 55, &first, jobdomain.PayoutReady)

	all, err := f.svc.PayoutHistory(ctx, domain.HistoryRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	filtered, err := f.svc.PayoutHistory(ctx, domain.HistoryRequest{ContractorID: first.String()})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, older.ID, filtered[0].ID)

	_, err = f.svc.PayoutHistory(ctx, domain.HistoryRequest{ContractorID: "not-a-number"})
	assert.ErrorIs(t, err, jobdomain.ErrInvalidID)
}
