package domain

import (
	"context"

	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	"github.com/fixwell/backoffice/pkg/db/pagination"
)

type SubmitRequest struct {
	CustomerID  string
	ServiceType string
	Description string
	EstimateMin *float64
	EstimateMax *float64
	QuoteOnly   bool
}

type ApproveRequest struct {
	JobID string
	Notes string
	Actor auditdomain.Actor
}

type AcceptRequest struct {
	JobID        string
	ContractorID string
}

type ProgressRequest struct {
	JobID        string
	ContractorID string
	Status       string // en_route or on_site
}

type StartRequest struct {
	JobID        string
	ContractorID string
	Notes        string
	BeforePhotos []string
}

type Material struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

type CompleteRequest struct {
	JobID        string
	ContractorID string
	FinalPrice   *float64
	MaterialFees float64
	Tasks        []string
	Materials    []Material
	AfterPhotos  []string
	Notes        string
}

type ContractorEndRequest struct {
	JobID        string
	ContractorID string
	CauseCode    string
	Notes        string
}

type AdminCancelRequest struct {
	JobID string
	Notes string
	Actor auditdomain.Actor
}

type AdminRelistRequest struct {
	JobID string
	Notes string
	Actor auditdomain.Actor
}

type AdminReassignRequest struct {
	JobID        string
	ContractorID string
	Notes        string
	Actor        auditdomain.Actor
}

type SetPaymentStatusRequest struct {
	JobID  string
	Status string
	Actor  auditdomain.Actor
}

type ListRequest struct {
	pagination.Pagination
	Status       string
	CustomerID   string
	ContractorID string
}

type ListResponse struct {
	pagination.PageInfo
	Jobs []Job `json:"jobs"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (Job, error)
	GetByID(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	History(ctx context.Context, id string, limit int) ([]Event, error)

	Approve(ctx context.Context, req ApproveRequest) (Job, error)
	Accept(ctx context.Context, req AcceptRequest) (Job, error)
	Progress(ctx context.Context, req ProgressRequest) (Job, error)
	Start(ctx context.Context, req StartRequest) (Job, error)
	Complete(ctx context.Context, req CompleteRequest) (Job, error)
	ContractorEnd(ctx context.Context, req ContractorEndRequest) (Job, error)

	AdminCancel(ctx context.Context, req AdminCancelRequest) (Job, error)
	AdminRelist(ctx context.Context, req AdminRelistRequest) (Job, error)
	AdminReassign(ctx context.Context, req AdminReassignRequest) (Job, error)
	SetPaymentStatus(ctx context.Context, req SetPaymentStatusRequest) (Job, error)
}
