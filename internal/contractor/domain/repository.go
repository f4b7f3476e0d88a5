package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contractor *Contractor) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contractor, error)
	UpdateTier(ctx context.Context, db *gorm.DB, id snowflake.ID, tier string) error
}
