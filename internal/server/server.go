package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/audit"
	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	"github.com/fixwell/backoffice/internal/config"
	"github.com/fixwell/backoffice/internal/contractor"
	contractordomain "github.com/fixwell/backoffice/internal/contractor/domain"
	"github.com/fixwell/backoffice/internal/job"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/internal/observability"
	obsmiddleware "github.com/fixwell/backoffice/internal/observability/logger"
	"github.com/fixwell/backoffice/internal/payout"
	payoutdomain "github.com/fixwell/backoffice/internal/payout/domain"
	"github.com/fixwell/backoffice/internal/ratelimit"
	"github.com/fixwell/backoffice/internal/report"
	reportdomain "github.com/fixwell/backoffice/internal/report/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	audit.Module,
	contractor.Module,
	job.Module,
	payout.Module,
	ratelimit.Module,
	report.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	jobSvc        jobdomain.Service
	payoutSvc     payoutdomain.Service
	contractorSvc contractordomain.Service
	reportSvc     reportdomain.Service
	auditSvc      auditdomain.Service
	submitLimiter *ratelimit.SubmitLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	JobSvc        jobdomain.Service
	PayoutSvc     payoutdomain.Service
	ContractorSvc contractordomain.Service
	ReportSvc     reportdomain.Service
	AuditSvc      auditdomain.Service
	SubmitLimiter *ratelimit.SubmitLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("http.server"),
		genID:         p.GenID,
		jobSvc:        p.JobSvc,
		payoutSvc:     p.PayoutSvc,
		contractorSvc: p.ContractorSvc,
		reportSvc:     p.ReportSvc,
		auditSvc:      p.AuditSvc,
		submitLimiter: p.SubmitLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	jobs := api.Group("/jobs")
	jobs.POST("", s.SubmitJob)
	jobs.GET("", s.ListJobs)
	jobs.GET("/:id", s.GetJob)
	jobs.GET("/:id/history", s.GetJobHistory)
	jobs.POST("/:id/accept", s.AcceptJob)
	jobs.POST("/:id/progress", s.ProgressJob)
	jobs.POST("/:id/start", s.StartJob)
	jobs.POST("/:id/complete", s.CompleteJob)
	jobs.POST("/:id/end", s.ContractorEndJob)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", RequireRole("admin"))

	jobs := admin.Group("/jobs")
	jobs.POST("/:id/approve", s.ApproveJob)
	jobs.POST("/:id/cancel", s.AdminCancelJob)
	jobs.POST("/:id/relist", s.AdminRelistJob)
	jobs.POST("/:id/reassign", s.AdminReassignJob)
	jobs.PUT("/:id/payment-status", s.SetJobPaymentStatus)

	payouts := admin.Group("/payouts")
	payouts.GET("/ready", s.ListReadyPayouts)
	payouts.POST("/batch", s.ProcessPayoutBatch)
	payouts.POST("/:id/ready", s.MarkPayoutReady)
	payouts.POST("/contractors/:id/pay", s.ProcessSinglePayout)
	payouts.PUT("/:id/override", s.OverridePayoutStatus)

	contractors := admin.Group("/contractors")
	contractors.POST("", s.CreateContractor)
	contractors.GET("/:id", s.GetContractor)
	contractors.PUT("/:id/tier", s.SetContractorTier)

	reports := admin.Group("/reports")
	reports.GET("/revenue", s.MonthToDateRevenue)
	reports.GET("/pending-payouts", s.PendingPayouts)
	reports.GET("/payout-history", s.PayoutHistory)

	admin.GET("/audit-logs", s.ListAuditLogs)
}
