package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/clock"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("report.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) MonthToDateRevenue(ctx context.Context) (domain.RevenueSummary, error) {
	now := s.clock.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.repo.SumRevenue(ctx, s.db, from, now)
}

func (s *Service) PendingPayouts(ctx context.Context) ([]domain.PendingPayoutGroup, error) {
	return s.repo.GroupPendingPayouts(ctx, s.db)
}

func (s *Service) PayoutHistory(ctx context.Context, req domain.HistoryRequest) ([]jobdomain.Job, error) {
	var contractorID snowflake.ID
	if raw := strings.TrimSpace(req.ContractorID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			return nil, jobdomain.ErrInvalidID
		}
		contractorID = parsed
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	items, err := s.repo.ListPaidJobs(ctx, s.db, contractorID, limit)
	if err != nil {
		return nil, err
	}
	jobs := make([]jobdomain.Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, *item)
	}
	return jobs, nil
}
