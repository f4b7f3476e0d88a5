package domain

import (
	"context"
	"errors"
)

type CreateContractorRequest struct {
	Name string
	Tier string
}

type SetTierRequest struct {
	ID   string
	Tier string
}

type Service interface {
	Create(ctx context.Context, req CreateContractorRequest) (Contractor, error)
	GetByID(ctx context.Context, id string) (Contractor, error)
	SetTier(ctx context.Context, req SetTierRequest) (Contractor, error)
}

var (
	ErrNotFound    = errors.New("not_found")
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
)
