package service

import (
	"context"
	"reflect"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	"github.com/fixwell/backoffice/internal/audit/masking"
	"github.com/fixwell/backoffice/internal/clock"
	"github.com/fixwell/backoffice/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    auditdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    auditdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	entityType := strings.TrimSpace(entry.EntityType)
	entityID := strings.TrimSpace(entry.EntityID)
	if entityType == "" || entityID == "" {
		return auditdomain.ErrInvalidEntity
	}

	actorRole := entry.Actor.Role
	if actorRole == "" {
		actorRole = auditdomain.ActorRoleSystem
	}

	before := masking.Redact(entry.Before)
	after := masking.Redact(entry.After)
	meta := masking.Redact(entry.Meta)

	event := auditdomain.AuditEvent{
		ID:         s.genID.Generate(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorRole:  string(actorRole),
		Before:     datatypes.JSONMap(before),
		After:      datatypes.JSONMap(after),
		Diff:       datatypes.JSONMap(diff(before, after)),
		Meta:       datatypes.JSONMap(meta),
		CreatedAt:  s.clock.Now(),
	}
	if actorID := strings.TrimSpace(entry.Actor.ID); actorID != "" {
		event.ActorID = &actorID
	}
	if reason := strings.TrimSpace(entry.Reason); reason != "" {
		event.Reason = &reason
	}

	if err := s.repo.Insert(ctx, s.db, &event); err != nil {
		s.metrics.IncAuditWriteFailure()
		s.log.Warn("failed to write audit event",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.AuditEvent, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 250 {
		limit = 250
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Action:     req.Action,
		ActorRole:  req.ActorRole,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	events := make([]auditdomain.AuditEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		events = append(events, *item)
	}
	return events, nil
}

// diff records changed keys as {from, to} pairs over the union of both maps.
func diff(before, after map[string]any) map[string]any {
	if len(before) == 0 && len(after) == 0 {
		return nil
	}

	out := map[string]any{}
	for key, oldValue := range before {
		newValue, ok := after[key]
		if !ok {
			out[key] = map[string]any{"from": oldValue, "to": nil}
			continue
		}
		if !reflect.DeepEqual(oldValue, newValue) {
			out[key] = map[string]any{"from": oldValue, "to": newValue}
		}
	}
	for key, newValue := range after {
		if _, ok := before[key]; !ok {
			out[key] = map[string]any{"from": nil, "to": newValue}
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
