package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/contractor/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contractor *domain.Contractor) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO contractors (id, name, tier, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		contractor.ID,
		contractor.Name,
		contractor.Tier,
		contractor.Active,
		contractor.CreatedAt,
		contractor.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Contractor, error) {
	var contractor domain.Contractor
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, tier, active, created_at, updated_at
		 FROM contractors WHERE id = ?`,
		id,
	).Scan(&contractor).Error
	if err != nil {
		return nil, err
	}
	if contractor.ID == 0 {
		return nil, nil
	}
	return &contractor, nil
}

func (r *repo) UpdateTier(ctx context.Context, db *gorm.DB, id snowflake.ID, tier string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE contractors SET tier = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		tier,
		id,
	).Error
}
