package domain

import (
	"context"
	"errors"
)

// Entry is a request to append one audit event. Before/After/Meta payloads
// are redacted before persistence; the diff is derived from Before and After.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      Actor
	Before     map[string]any
	After      map[string]any
	Reason     string
	Meta       map[string]any
}

type ListRequest struct {
	EntityType string
	EntityID   string
	Action     string
	ActorRole  string
	Limit      int
}

type Service interface {
	// Record appends one event. Callers on the transition path treat a
	// returned error as non-fatal: the state change stands, the failure is
	// logged and counted.
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListRequest) ([]AuditEvent, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidEntity = errors.New("invalid_entity")
)
