package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	auditrepo "github.com/fixwell/backoffice/internal/audit/repository"
	"github.com/fixwell/backoffice/internal/clock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuditService(t *testing.T) (auditdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})
	return svc, db, fake
}

func TestRecordRedactsAndDiffs(t *testing.T) {
	svc, db, _ := setupAuditService(t)
	ctx := context.Background()

	err := svc.Record(ctx, auditdomain.Entry{
		Action:     "job.complete",
		EntityType: "job",
		EntityID:   "123",
		Actor:      auditdomain.Actor{Role: auditdomain.ActorRoleContractor, ID: "77"},
		Before:     map[string]any{"status": "in_progress", "gate_password": "hunter2"},
		After:      map[string]any{"status": "completed", "gate_password": "hunter2"},
		Meta:       map[string]any{"final_price": 450.0},
	})
	require.NoError(t, err)

	var event auditdomain.AuditEvent
	require.NoError(t, db.First(&event, "action = ?", "job.complete").Error)

	assert.Equal(t, "job", event.EntityType)
	assert.Equal(t, "123", event.EntityID)
	assert.Equal(t, "contractor", event.ActorRole)
	assert.Equal(t, "[REDACTED]", event.Before["gate_password"])
	assert.Equal(t, "[REDACTED]", event.After["gate_password"])

	// Redacted values are identical on both sides, so only status shows up.
	require.Contains(t, event.Diff, "status")
	assert.NotContains(t, event.Diff, "gate_password")
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _, _ := setupAuditService(t)

	err := svc.Record(context.Background(), auditdomain.Entry{
		Action:     "  ",
		EntityType: "job",
		EntityID:   "1",
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListNewestFirstWithFilterAndLimit(t *testing.T) {
	svc, _, fake := setupAuditService(t)
	ctx := context.Background()

	for _, action := range []string{"job.accept", "job.start", "job.complete"} {
		require.NoError(t, svc.Record(ctx, auditdomain.Entry{
			Action:     action,
			EntityType: "job",
			EntityID:   "42",
			Actor:      auditdomain.Actor{Role: auditdomain.ActorRoleContractor, ID: "7"},
		}))
		fake.Advance(time.Minute)
	}
	require.NoError(t, svc.Record(ctx, auditdomain.Entry{
		Action:     "payout.ready",
		EntityType: "job",
		EntityID:   "99",
		Actor:      auditdomain.Actor{Role: auditdomain.ActorRoleAdmin},
	}))

	events, err := svc.List(ctx, auditdomain.ListRequest{EntityType: "job", EntityID: "42"})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "job.complete", events[0].Action)
	assert.Equal(t, "job.accept", events[2].Action)

	limited, err := svc.List(ctx, auditdomain.ListRequest{EntityType: "job", EntityID: "42", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "job.complete", limited[0].Action)
}
