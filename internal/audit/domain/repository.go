package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	EntityType string
	EntityID   string
	Action     string
	ActorRole  string
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *AuditEvent) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditEvent, error)
}
