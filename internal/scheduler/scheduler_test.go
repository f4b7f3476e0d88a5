package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	auditrepo "github.com/fixwell/backoffice/internal/audit/repository"
	auditservice "github.com/fixwell/backoffice/internal/audit/service"
	"github.com/fixwell/backoffice/internal/clock"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	payoutrepo "github.com/fixwell/backoffice/internal/payout/repository"
	payoutservice "github.com/fixwell/backoffice/internal/payout/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupScheduler(t *testing.T) (*Scheduler, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&jobdomain.Job{},
		&jobdomain.Event{},
		&auditdomain.AuditEvent{},
	))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: auditrepo.Provide(),
	})
	payoutSvc := payoutservice.New(payoutservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo:  payoutrepo.Provide(),
		Audit: audit,
	})

	sched := New(Params{
		DB:        db,
		Log:       log,
		PayoutSvc: payoutSvc,
		Config:    Config{BatchSize: 10},
	})
	return sched, db, node
}

func insertJob(t *testing.T, db *gorm.DB, node *snowflake.Node, status jobdomain.Status, payment jobdomain.PaymentStatus, payout *float64) jobdomain.Job {
	t.Helper()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	job := jobdomain.Job{
		ID:               node.Generate(),
		CustomerID:       node.Generate(),
		ServiceType:      "cleaning",
		Status:           status,
		PaymentStatus:    payment,
		PayoutStatus:     jobdomain.PayoutNotReady,
		ContractorPayout: payout,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status == jobdomain.StatusCompleted {
		job.CompletedAt = &now
	}
	require.NoError(t, db.Create(&job).Error)
	return job
}

func TestRunOnceMarksEligibleJobsReady(t *testing.T) {
	sched, db, node := setupScheduler(t)
	payout := 100.0

	eligible := insertJob(t, db, node, jobdomain.StatusCompleted, jobdomain.PaymentPaid, &payout)
	unpaid := insertJob(t, db, node, jobdomain.StatusCompleted, jobdomain.PaymentUnpaid, &payout)
	unpriced := insertJob(t, db, node, jobdomain.StatusCompleted, jobdomain.PaymentPaid, nil)
	running := insertJob(t, db, node, jobdomain.StatusInProgress, jobdomain.PaymentPaid, &payout)

	require.NoError(t, sched.RunOnce(context.Background()))

	assertPayoutStatus := func(id snowflake.ID, want jobdomain.PayoutStatus) {
		var job jobdomain.Job
		require.NoError(t, db.First(&job, "id = ?", id).Error)
		assert.Equal(t, want, job.PayoutStatus)
	}

	assertPayoutStatus(eligible.ID, jobdomain.PayoutReady)
	assertPayoutStatus(unpaid.ID, jobdomain.PayoutNotReady)
	assertPayoutStatus(unpriced.ID, jobdomain.PayoutNotReady)
	assertPayoutStatus(running.ID, jobdomain.PayoutNotReady)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	sched, db, node := setupScheduler(t)
	payout := 100.0
	job := insertJob(t, db, node, jobdomain.StatusCompleted, jobdomain.PaymentPaid, &payout)

	require.NoError(t, sched.RunOnce(context.Background()))
	require.NoError(t, sched.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&jobdomain.Event{}).
		Where("job_id = ?", job.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
