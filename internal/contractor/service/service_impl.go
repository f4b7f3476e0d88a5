package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/clock"
	"github.com/fixwell/backoffice/internal/contractor/domain"
	"github.com/fixwell/backoffice/internal/finance"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("contractor.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateContractorRequest) (domain.Contractor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Contractor{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	contractor := domain.Contractor{
		ID:        s.genID.Generate(),
		Name:      name,
		Tier:      string(finance.ParseTier(req.Tier)),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &contractor); err != nil {
		return domain.Contractor{}, err
	}
	return contractor, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Contractor, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Contractor{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Contractor{}, err
	}
	if item == nil {
		return domain.Contractor{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) SetTier(ctx context.Context, req domain.SetTierRequest) (domain.Contractor, error) {
	contractor, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Contractor{}, err
	}

	tier := string(finance.ParseTier(req.Tier))
	if err := s.repo.UpdateTier(ctx, s.db, contractor.ID, tier); err != nil {
		return domain.Contractor{}, err
	}
	contractor.Tier = tier
	return contractor, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
