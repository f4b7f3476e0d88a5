package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/finance"
)

// Contractor is the minimal contractor record the engine reads: identity,
// tier and whether the contractor may take work. The full profile lives with
// the identity collaborator.
type Contractor struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Tier      string       `gorm:"not null;default:'bronze'" json:"tier"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Contractor) TableName() string { return "contractors" }

// CurrentTier returns the contractor's tier as a typed value.
func (c Contractor) CurrentTier() finance.Tier {
	return finance.ParseTier(c.Tier)
}
