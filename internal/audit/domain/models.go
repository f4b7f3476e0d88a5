package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorRole identifies who performed an audited action.
type ActorRole string

const (
	ActorRoleCustomer   ActorRole = "customer"
	ActorRoleContractor ActorRole = "contractor"
	ActorRoleAdmin      ActorRole = "admin"
	ActorRoleSystem     ActorRole = "system"
)

// Actor is the identity attached to every audit event.
type Actor struct {
	Role ActorRole `json:"role"`
	ID   string    `json:"id"`
}

// AuditEvent is an immutable, write-once record. Rows are only ever appended;
// there is no update or delete path anywhere in the codebase.
type AuditEvent struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Action     string            `gorm:"not null;index" json:"action"`
	EntityType string            `gorm:"not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   string            `gorm:"not null;index:idx_audit_entity" json:"entity_id"`
	ActorRole  string            `gorm:"not null" json:"actor_role"`
	ActorID    *string           `json:"actor_id,omitempty"`
	Before     datatypes.JSONMap `gorm:"type:jsonb" json:"before,omitempty"`
	After      datatypes.JSONMap `gorm:"type:jsonb" json:"after,omitempty"`
	Diff       datatypes.JSONMap `gorm:"type:jsonb" json:"diff,omitempty"`
	Reason     *string           `json:"reason,omitempty"`
	Meta       datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_events" }
