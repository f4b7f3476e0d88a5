package service

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
	"github.com/fixwell/backoffice/internal/payout/domain"
	payoutrepo "github.com/fixwell/backoffice/internal/payout/repository"
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
	require.NoError(t, db.AutoMigrate(
		&jobdomain.Job{},
		&jobdomain.Event{},
		&auditdomain.AuditEvent{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})

	svc := New(Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  payoutrepo.Provide(),
		Audit: audit,
	})
	return &fixture{svc: svc, db: db, node: node, clock: fake}
}

type jobOpts struct {
	status        jobdomain.Status
	paymentStatus jobdomain.PaymentStatus
	payoutStatus  jobdomain.PayoutStatus
	payout        *float64
	contractorID  *snowflake.ID
}

func (f *fixture) insertJob(t *testing.T, opts jobOpts) jobdomain.Job {
	t.Helper()

	if opts.status == "" {
		opts.status = jobdomain.StatusCompleted
	}
	if opts.paymentStatus == "" {
		opts.paymentStatus = jobdomain.PaymentPaid
	}
	if opts.payoutStatus == "" {
		opts.payoutStatus = jobdomain.PayoutNotReady
	}

	now := f.clock.Now()
	job := jobdomain.Job{
		ID:               f.node.Generate(),
		CustomerID:       f.node.Generate(),
		ContractorID:     opts.contractorID,
		ServiceType:      "electrical",
		Status:           opts.status,
		PaymentStatus:    opts.paymentStatus,
		PayoutStatus:     opts.payoutStatus,
		ContractorPayout: opts.payout,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.db.Create(&job).Error)
	return job
}

func ptr(v float64) *float64 { return &v }

func TestMarkReady(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	job := f.insertJob(t, jobOpts{payout: ptr(315.15)})

	got, err := f.svc.MarkReady(ctx, domain.MarkReadyRequest{JobID: job.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, jobdomain.PayoutReady, got.PayoutStatus)

	// Second call is a no-op, not an error.
	again, err := f.svc.MarkReady(ctx, domain.MarkReadyRequest{JobID: job.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, jobdomain.PayoutReady, again.PayoutStatus)

	var count int64
	require.NoError(t, f.db.Model(&jobdomain.Event{}).
		Where("job_id = ? AND action = ?", job.ID, domain.ActionMarkReady).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMarkReadyGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	unpriced := f.insertJob(t, jobOpts{})
	_, err := f.svc.MarkReady(ctx, domain.MarkReadyRequest{JobID: unpriced.ID.String()})
	assert.ErrorIs(t, err, jobdomain.ErrPricingUnavailable)

	inProgress := f.insertJob(t, jobOpts{status: jobdomain.StatusInProgress, payout: ptr(50)})
	_, err = f.svc.MarkReady(ctx, domain.MarkReadyRequest{JobID: inProgress.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotPayable)

	unpaid := f.insertJob(t, jobOpts{paymentStatus: jobdomain.PaymentUnpaid, payout: ptr(50)})
	_, err = f.svc.MarkReady(ctx, domain.MarkReadyRequest{JobID: unpaid.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotPayable)

	alreadyPaid := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutPaid, payout: ptr(50)})
	_, err = f.svc.MarkReady(ctx, domain.MarkReadyRequest{JobID: alreadyPaid.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotPayable)

	_, err = f.svc.MarkReady(ctx, domain.MarkReadyRequest{JobID: f.node.Generate().String()})
	assert.ErrorIs(t, err, jobdomain.ErrNotFound)
}

func TestProcessBatchPartialSuccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ready1 := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutReady, payout: ptr(100)})
	ready2 := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutReady, payout: ptr(200)})
	notReady := f.insertJob(t, jobOpts{payout: ptr(300)})
	missing := f.node.Generate().String()

	result, err := f.svc.ProcessBatch(ctx, domain.BatchRequest{
		JobIDs: []string{ready1.ID.String(), missing, notReady.ID.String(), "garbage", ready2.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{ready1.ID.String(), ready2.ID.String()}, result.UpdatedIDs)

	var paid jobdomain.Job
	require.NoError(t, f.db.First(&paid, "id = ?", ready1.ID).Error)
	assert.Equal(t, jobdomain.PayoutPaid, paid.PayoutStatus)
	require.NotNil(t, paid.PaidOutAt)

	var untouched jobdomain.Job
	require.NoError(t, f.db.First(&untouched, "id = ?", notReady.ID).Error)
	assert.Equal(t, jobdomain.PayoutNotReady, untouched.PayoutStatus)
	assert.Nil(t, untouched.PaidOutAt)
}

func TestProcessBatchRetryNeverDoublePays(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	job := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutReady, payout: ptr(100)})
	firstPaidAt := f.clock.Now()

	result, err := f.svc.ProcessBatch(ctx, domain.BatchRequest{JobIDs: []string{job.ID.String()}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)

	f.clock.Advance(time.Hour)
	retry, err := f.svc.ProcessBatch(ctx, domain.BatchRequest{JobIDs: []string{job.ID.String()}})
	require.NoError(t, err)
	assert.Equal(t, 0, retry.Count)

	var stored jobdomain.Job
	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	require.NotNil(t, stored.PaidOutAt)
	assert.Equal(t, firstPaidAt, stored.PaidOutAt.UTC())
}

func TestProcessBatchEmpty(t *testing.T) {
	f := setup(t)
	_, err := f.svc.ProcessBatch(context.Background(), domain.BatchRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}

func TestProcessBatchHonorsCancellation(t *testing.T) {
	f := setup(t)
	job := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutReady, payout: ptr(100)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.svc.ProcessBatch(ctx, domain.BatchRequest{JobIDs: []string{job.ID.String()}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Count)

	// The batch event is still written, recording how far the run got.
	var events []auditdomain.AuditEvent
	require.NoError(t, f.db.Where("entity_id = ?", "batch").Find(&events).Error)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].Meta["error"])
}

func TestProcessSingle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	contractorID := f.node.Generate()
	first := f.insertJob(t, jobOpts{
		payoutStatus: jobdomain.PayoutReady,
		payout:       ptr(80),
		contractorID: &contractorID,
	})
	second := f.insertJob(t, jobOpts{
		payoutStatus: jobdomain.PayoutReady,
		payout:       ptr(120),
		contractorID: &contractorID,
	})

	// A job owned by someone else rejects the disbursement before any
	// payment happens.
	otherOwner := f.node.Generate()
	foreign := f.insertJob(t, jobOpts{
		payoutStatus: jobdomain.PayoutReady,
		payout:       ptr(50),
		contractorID: &otherOwner,
	})
	_, err := f.svc.ProcessSingle(ctx, domain.SingleRequest{
		ContractorID: contractorID.String(),
		JobIDs:       []string{first.ID.String(), foreign.ID.String()},
	})
	assert.ErrorIs(t, err, domain.ErrNotPayable)

	var untouched jobdomain.Job
	require.NoError(t, f.db.First(&untouched, "id = ?", first.ID).Error)
	assert.Equal(t, jobdomain.PayoutReady, untouched.PayoutStatus)

	got, err := f.svc.ProcessSingle(ctx, domain.SingleRequest{
		ContractorID: contractorID.String(),
		JobIDs:       []string{first.ID.String(), second.ID.String()},
		Amount:       ptr(200),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, []string{first.ID.String(), second.ID.String()}, got.UpdatedIDs)

	// Retrying the disbursement skips the already-paid jobs.
	again, err := f.svc.ProcessSingle(ctx, domain.SingleRequest{
		ContractorID: contractorID.String(),
		JobIDs:       []string{first.ID.String(), second.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Count)
}

func TestDisbursementFailureStillAudited(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	contractorID := f.node.Generate()
	ready := f.insertJob(t, jobOpts{
		payoutStatus: jobdomain.PayoutReady,
		payout:       ptr(90),
		contractorID: &contractorID,
	})
	// Owned by the contractor but never queued, so the pay loop fails after
	// the first job already moved to paid.
	stuck := f.insertJob(t, jobOpts{
		payout:       ptr(40),
		contractorID: &contractorID,
	})

	res, err := f.svc.ProcessSingle(ctx, domain.SingleRequest{
		ContractorID: contractorID.String(),
		JobIDs:       []string{ready.ID.String(), stuck.ID.String()},
	})
	assert.ErrorIs(t, err, domain.ErrNotPayable)
	assert.Equal(t, 1, res.Count)

	// The job paid before the failure keeps its audit trail, with the
	// failure noted on the event.
	var events []auditdomain.AuditEvent
	require.NoError(t, f.db.Where("entity_id = ?", contractorID.String()).Find(&events).Error)
	require.Len(t, events, 1)
	ids, ok := events[0].Meta["job_ids"].([]any)
	require.True(t, ok)
	require.Len(t, ids, 1)
	assert.Equal(t, ready.ID.String(), ids[0])
	assert.NotEmpty(t, events[0].Meta["error"])
}

func TestOverride(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	job := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutProcessing, payout: ptr(80)})

	_, err := f.svc.Override(ctx, domain.OverrideRequest{
		JobID: job.ID.String(), Status: "ready",
	})
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	got, err := f.svc.Override(ctx, domain.OverrideRequest{
		JobID:  job.ID.String(),
		Status: "ready",
		Reason: "disbursement bounced, requeueing",
		Actor:  auditdomain.Actor{Role: auditdomain.ActorRoleAdmin, ID: "ops-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, jobdomain.PayoutReady, got.PayoutStatus)

	var event jobdomain.Event
	require.NoError(t, f.db.First(&event, "job_id = ? AND action = ?", job.ID, domain.ActionOverride).Error)
	assert.Equal(t, "disbursement bounced, requeueing", event.Details["reason"])
	assert.Equal(t, "processing", event.FromStatus)
	assert.Equal(t, "ready", event.ToStatus)
}

func TestListReadyOldestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	older := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutReady, payout: ptr(10)})
	f.clock.Advance(time.Minute)
	newer := f.insertJob(t, jobOpts{payoutStatus: jobdomain.PayoutReady, payout: ptr(20)})
	f.insertJob(t, jobOpts{payout: ptr(30)})

	jobs, err := f.svc.ListReady(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, older.ID, jobs[0].ID)
	assert.Equal(t, newer.ID, jobs[1].ID)
}
