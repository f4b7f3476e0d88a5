package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	"github.com/fixwell/backoffice/internal/clock"
	"github.com/fixwell/backoffice/internal/config"
	contractordomain "github.com/fixwell/backoffice/internal/contractor/domain"
	"github.com/fixwell/backoffice/internal/finance"
	"github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/internal/observability/metrics"
	"github.com/fixwell/backoffice/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Contractors contractordomain.Repository
	Fees        *config.FeeScheduleHolder
	Audit       auditdomain.Service
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	contractors contractordomain.Repository
	fees        *config.FeeScheduleHolder
	audit       auditdomain.Service
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("job.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		contractors: p.Contractors,
		fees:        p.Fees,
		audit:       p.Audit,
		metrics:     p.Metrics,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.Job, error) {
	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidCustomer
	}
	serviceType := strings.TrimSpace(req.ServiceType)
	if serviceType == "" {
		return domain.Job{}, domain.ErrInvalidServiceType
	}

	now := s.clock.Now()
	job := domain.Job{
		ID:            s.genID.Generate(),
		CustomerID:    customerID,
		ServiceType:   serviceType,
		Description:   strings.TrimSpace(req.Description),
		Status:        domain.StatusSubmitted,
		PaymentStatus: domain.PaymentUnpaid,
		PayoutStatus:  domain.PayoutNotReady,
		EstimateMin:   req.EstimateMin,
		EstimateMax:   req.EstimateMax,
		QuoteOnly:     req.QuoteOnly,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	actor := auditdomain.Actor{Role: auditdomain.ActorRoleCustomer, ID: customerID.String()}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &job); err != nil {
			return err
		}
		return s.repo.InsertEvent(ctx, tx, s.newEvent(&job, domain.ActionSubmit, actor, "", job.Status, nil))
	})
	if err != nil {
		s.metrics.IncJobTransition(string(domain.ActionSubmit), "error")
		return domain.Job{}, err
	}

	s.metrics.IncJobTransition(string(domain.ActionSubmit), "ok")
	s.recordAudit(ctx, &job, domain.ActionSubmit, actor, nil, map[string]any{
		"status":       string(job.Status),
		"service_type": job.ServiceType,
	}, "")
	return job, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Job, error) {
	jobID, err := parseID(id)
	if err != nil {
		return domain.Job{}, err
	}
	job, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if job == nil {
		return domain.Job{}, domain.ErrNotFound
	}
	return *job, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = 50
	}
	if limit > 250 {
		limit = 250
	}

	filter := domain.ListFilter{Limit: limit + 1}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Status = status
	}
	if req.CustomerID != "" {
		id, err := parseID(req.CustomerID)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.CustomerID = id
	}
	if req.ContractorID != "" {
		id, err := parseID(req.ContractorID)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.ContractorID = id
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Cursor, err = decodeJobCursor(cursor)
		if err != nil {
			return domain.ListResponse{}, err
		}
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(limit), func(job *domain.Job) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        job.ID.String(),
			CreatedAt: job.CreatedAt.Format(cursorTimeLayout),
		})
		return token
	})

	if len(items) > limit {
		items = items[:limit]
	}
	jobs := make([]domain.Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, *item)
	}
	return domain.ListResponse{PageInfo: *pageInfo, Jobs: jobs}, nil
}

func (s *Service) History(ctx context.Context, id string, limit int) ([]domain.Event, error) {
	jobID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if job, err := s.repo.FindByID(ctx, s.db, jobID); err != nil {
		return nil, err
	} else if job == nil {
		return nil, domain.ErrNotFound
	}

	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	items, err := s.repo.ListEvents(ctx, s.db, jobID, limit)
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(items))
	for _, item := range items {
		events = append(events, *item)
	}
	return events, nil
}

func (s *Service) Approve(ctx context.Context, req domain.ApproveRequest) (domain.Job, error) {
	return s.transition(ctx, req.JobID, domain.ActionApprove, adminActor(req.Actor), req.Notes,
		func(job *domain.Job) error {
			job.Status = domain.StatusReadyToAssign
			return nil
		})
}

func (s *Service) Accept(ctx context.Context, req domain.AcceptRequest) (domain.Job, error) {
	contractor, err := s.requireActiveContractor(ctx, req.ContractorID)
	if err != nil {
		return domain.Job{}, err
	}

	actor := auditdomain.Actor{Role: auditdomain.ActorRoleContractor, ID: contractor.ID.String()}
	return s.transition(ctx, req.JobID, domain.ActionAccept, actor, "",
		func(job *domain.Job) error {
			if job.ContractorID != nil {
				return &domain.TransitionError{
					Action:  domain.ActionAccept,
					Current: job.Status,
					Reason:  "job already has a contractor",
				}
			}
			id := contractor.ID
			job.ContractorID = &id
			job.Status = domain.StatusAssigned
			return nil
		})
}

func (s *Service) Progress(ctx context.Context, req domain.ProgressRequest) (domain.Job, error) {
	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		return domain.Job{}, err
	}

	actor := auditdomain.Actor{Role: auditdomain.ActorRoleContractor, ID: strings.TrimSpace(req.ContractorID)}
	return s.transition(ctx, req.JobID, domain.ActionProgress, actor, "",
		func(job *domain.Job) error {
			if err := s.requireAssignee(job, domain.ActionProgress, req.ContractorID); err != nil {
				return err
			}
			// Travel states advance strictly one step at a time.
			valid := (job.Status == domain.StatusAssigned && target == domain.StatusEnRoute) ||
				(job.Status == domain.StatusEnRoute && target == domain.StatusOnSite)
			if !valid {
				return &domain.TransitionError{
					Action:  domain.ActionProgress,
					Current: job.Status,
					Reason:  "cannot move to " + string(target),
				}
			}
			job.Status = target
			return nil
		})
}

func (s *Service) Start(ctx context.Context, req domain.StartRequest) (domain.Job, error) {
	actor := auditdomain.Actor{Role: auditdomain.ActorRoleContractor, ID: strings.TrimSpace(req.ContractorID)}
	return s.transition(ctx, req.JobID, domain.ActionStart, actor, "",
		func(job *domain.Job) error {
			if err := s.requireAssignee(job, domain.ActionStart, req.ContractorID); err != nil {
				return err
			}
			report := datatypes.JSONMap{
				"started_at": s.clock.Now().Format(cursorTimeLayout),
			}
			if notes := strings.TrimSpace(req.Notes); notes != "" {
				report["notes"] = notes
			}
			if len(req.BeforePhotos) > 0 {
				report["before_photos"] = req.BeforePhotos
			}
			job.StartReport = report
			job.Status = domain.StatusInProgress
			return nil
		})
}

func (s *Service) Complete(ctx context.Context, req domain.CompleteRequest) (domain.Job, error) {
	actor := auditdomain.Actor{Role: auditdomain.ActorRoleContractor, ID: strings.TrimSpace(req.ContractorID)}
	return s.transition(ctx, req.JobID, domain.ActionComplete, actor, strings.TrimSpace(req.Notes),
		func(job *domain.Job) error {
			if err := s.requireAssignee(job, domain.ActionComplete, req.ContractorID); err != nil {
				return err
			}

			materialFees := req.MaterialFees
			if materialFees == 0 {
				for _, m := range req.Materials {
					materialFees += m.Cost
				}
			}
			if materialFees < 0 {
				materialFees = 0
			}
			materialFees = finance.Round2(materialFees)

			tier := s.snapshotTier(ctx, job)
			breakdown := finance.Compute(req.FinalPrice, materialFees, tier, s.fees.Get())

			now := s.clock.Now()
			job.Status = domain.StatusCompleted
			job.CompletedAt = &now
			job.CompletionReport = completionReport(req)

			tierValue := string(tier)
			job.ContractorTier = &tierValue
			if breakdown.Priced() {
				job.FinalPrice = req.FinalPrice
				job.MaterialFees = &materialFees
				job.ProcessingFee = breakdown.ProcessingFee
				job.PlatformFee = breakdown.PlatformFee
				job.ContractorPayout = breakdown.ContractorPayout
			}
			return nil
		})
}

func (s *Service) ContractorEnd(ctx context.Context, req domain.ContractorEndRequest) (domain.Job, error) {
	cause, err := domain.ParseCauseCode(req.CauseCode)
	if err != nil {
		return domain.Job{}, err
	}

	actor := auditdomain.Actor{Role: auditdomain.ActorRoleContractor, ID: strings.TrimSpace(req.ContractorID)}
	return s.transition(ctx, req.JobID, domain.ActionContractorEnd, actor, strings.TrimSpace(req.Notes),
		func(job *domain.Job) error {
			if err := s.requireAssignee(job, domain.ActionContractorEnd, req.ContractorID); err != nil {
				return err
			}
			causeValue := string(cause)
			job.CancelCause = &causeValue
			if notes := strings.TrimSpace(req.Notes); notes != "" {
				job.CancelNotes = &notes
			}
			job.ContractorID = nil
			job.Status = domain.StatusCancelRequested
			return nil
		})
}

func (s *Service) AdminCancel(ctx context.Context, req domain.AdminCancelRequest) (domain.Job, error) {
	return s.transition(ctx, req.JobID, domain.ActionAdminCancel, adminActor(req.Actor), req.Notes,
		func(job *domain.Job) error {
			if notes := strings.TrimSpace(req.Notes); notes != "" {
				job.CancelNotes = &notes
			}
			job.ContractorID = nil
			job.Status = domain.StatusCancelled
			return nil
		})
}

func (s *Service) AdminRelist(ctx context.Context, req domain.AdminRelistRequest) (domain.Job, error) {
	return s.transition(ctx, req.JobID, domain.ActionAdminRelist, adminActor(req.Actor), req.Notes,
		func(job *domain.Job) error {
			job.ContractorID = nil
			job.CancelCause = nil
			job.CancelNotes = nil
			job.StartReport = nil
			job.RelistCount++
			job.Status = domain.StatusOpen
			return nil
		})
}

func (s *Service) AdminReassign(ctx context.Context, req domain.AdminReassignRequest) (domain.Job, error) {
	contractor, err := s.requireActiveContractor(ctx, req.ContractorID)
	if err != nil {
		return domain.Job{}, err
	}

	return s.transition(ctx, req.JobID, domain.ActionAdminReassign, adminActor(req.Actor), req.Notes,
		func(job *domain.Job) error {
			id := contractor.ID
			job.ContractorID = &id
			job.StartReport = nil
			job.Status = domain.StatusAssigned
			return nil
		})
}

func (s *Service) SetPaymentStatus(ctx context.Context, req domain.SetPaymentStatusRequest) (domain.Job, error) {
	status, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		return domain.Job{}, err
	}

	jobID, err := parseID(req.JobID)
	if err != nil {
		return domain.Job{}, err
	}
	job, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if job == nil {
		return domain.Job{}, domain.ErrNotFound
	}

	before := job.PaymentStatus
	if before == status {
		return *job, nil
	}

	actor := adminActor(req.Actor)
	job.PaymentStatus = status
	job.UpdatedAt = s.clock.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Only the payment axis is written, guarded on its prior value, so
		// concurrent lifecycle or payout writes are never clobbered from a
		// stale snapshot.
		ok, err := s.repo.UpdatePaymentStatus(ctx, tx, job.ID, before, status, job.UpdatedAt)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ConflictError{Action: domain.ActionPaymentStatus, Expected: string(before)}
		}
		event := s.newEvent(job, domain.ActionPaymentStatus, actor, job.Status, job.Status, datatypes.JSONMap{
			"payment_status": string(status),
		})
		return s.repo.InsertEvent(ctx, tx, event)
	})
	if err != nil {
		s.metrics.IncJobTransition(string(domain.ActionPaymentStatus), outcomeFor(err))
		return domain.Job{}, err
	}

	s.metrics.IncJobTransition(string(domain.ActionPaymentStatus), "ok")
	s.recordAudit(ctx, job, domain.ActionPaymentStatus, actor,
		map[string]any{"payment_status": string(before)},
		map[string]any{"payment_status": string(status)},
		"")
	return *job, nil
}

// transition runs one guarded state change: load, check the transition table,
// apply the mutation, then commit the write and its history event atomically
// with an optimistic check on the loaded status.
func (s *Service) transition(
	ctx context.Context,
	rawJobID string,
	action domain.Action,
	actor auditdomain.Actor,
	notes string,
	mutate func(job *domain.Job) error,
) (domain.Job, error) {
	jobID, err := parseID(rawJobID)
	if err != nil {
		return domain.Job{}, err
	}

	job, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if job == nil {
		return domain.Job{}, domain.ErrNotFound
	}

	from := job.Status
	if !domain.CanTransition(action, from) {
		s.metrics.IncJobTransition(string(action), "rejected")
		return domain.Job{}, &domain.TransitionError{Action: action, Current: from}
	}

	if err := mutate(job); err != nil {
		s.metrics.IncJobTransition(string(action), "rejected")
		return domain.Job{}, err
	}
	job.UpdatedAt = s.clock.Now()

	details := datatypes.JSONMap{}
	if notes = strings.TrimSpace(notes); notes != "" {
		details["notes"] = notes
	}
	if job.CancelCause != nil && action == domain.ActionContractorEnd {
		details["cause_code"] = *job.CancelCause
	}
	if len(details) == 0 {
		details = nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateGuarded(ctx, tx, job, from)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ConflictError{Action: action, Expected: string(from)}
		}
		return s.repo.InsertEvent(ctx, tx, s.newEvent(job, action, actor, from, job.Status, details))
	})
	if err != nil {
		s.metrics.IncJobTransition(string(action), outcomeFor(err))
		return domain.Job{}, err
	}

	s.metrics.IncJobTransition(string(action), "ok")
	s.recordAudit(ctx, job, action, actor,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(job.Status)},
		notes)
	return *job, nil
}

func (s *Service) newEvent(
	job *domain.Job,
	action domain.Action,
	actor auditdomain.Actor,
	from, to domain.Status,
	details datatypes.JSONMap,
) *domain.Event {
	event := &domain.Event{
		ID:         s.genID.Generate(),
		JobID:      job.ID,
		Action:     string(action),
		ActorRole:  string(actor.Role),
		FromStatus: string(from),
		ToStatus:   string(to),
		Details:    details,
		CreatedAt:  s.clock.Now(),
	}
	if id := strings.TrimSpace(actor.ID); id != "" {
		event.ActorID = &id
	}
	return event
}

// recordAudit is best-effort: the transition already committed, so an audit
// failure is logged and counted inside the audit service, never surfaced.
func (s *Service) recordAudit(
	ctx context.Context,
	job *domain.Job,
	action domain.Action,
	actor auditdomain.Actor,
	before, after map[string]any,
	reason string,
) {
	_ = s.audit.Record(ctx, auditdomain.Entry{
		Action:     string(action),
		EntityType: "job",
		EntityID:   job.ID.String(),
		Actor:      actor,
		Before:     before,
		After:      after,
		Reason:     reason,
	})
}

func (s *Service) requireActiveContractor(ctx context.Context, rawID string) (*contractordomain.Contractor, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	contractor, err := s.contractors.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if contractor == nil || !contractor.Active {
		return nil, contractordomain.ErrNotFound
	}
	return contractor, nil
}

func (s *Service) requireAssignee(job *domain.Job, action domain.Action, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if !job.AssignedTo(id) {
		return &domain.TransitionError{
			Action:  action,
			Current: job.Status,
			Reason:  "job is not assigned to this contractor",
		}
	}
	return nil
}

// snapshotTier resolves the contractor's tier at completion time. A missing
// contractor record falls back to bronze rather than blocking completion.
func (s *Service) snapshotTier(ctx context.Context, job *domain.Job) finance.Tier {
	if job.ContractorID == nil {
		return finance.TierBronze
	}
	contractor, err := s.contractors.FindByID(ctx, s.db, *job.ContractorID)
	if err != nil || contractor == nil {
		s.log.Warn("tier snapshot fell back to bronze",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return finance.TierBronze
	}
	return contractor.CurrentTier()
}

func completionReport(req domain.CompleteRequest) datatypes.JSONMap {
	report := datatypes.JSONMap{}
	if len(req.Tasks) > 0 {
		report["tasks"] = req.Tasks
	}
	if len(req.Materials) > 0 {
		materials := make([]any, 0, len(req.Materials))
		for _, m := range req.Materials {
			materials = append(materials, map[string]any{"name": m.Name, "cost": m.Cost})
		}
		report["materials"] = materials
	}
	if len(req.AfterPhotos) > 0 {
		report["after_photos"] = req.AfterPhotos
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		report["notes"] = notes
	}
	if len(report) == 0 {
		return nil
	}
	return report
}

func adminActor(actor auditdomain.Actor) auditdomain.Actor {
	if actor.Role == "" {
		actor.Role = auditdomain.ActorRoleAdmin
	}
	return actor
}

func outcomeFor(err error) string {
	if _, ok := err.(*domain.ConflictError); ok {
		return "conflict"
	}
	return "error"
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

const cursorTimeLayout = time.RFC3339Nano

func decodeJobCursor(cursor *pagination.Cursor) (*domain.Cursor, error) {
	if cursor == nil || cursor.ID == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	createdAt, err := time.Parse(cursorTimeLayout, cursor.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Cursor{ID: id, CreatedAt: createdAt}, nil
}
