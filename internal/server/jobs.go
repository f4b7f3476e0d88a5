package server

import (
	"net/http"
	"strings"

	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type submitJobBody struct {
	CustomerID  string   `json:"customer_id" binding:"required"`
	ServiceType string   `json:"service_type" binding:"required"`
	Description string   `json:"description"`
	EstimateMin *float64 `json:"estimate_min"`
	EstimateMax *float64 `json:"estimate_max"`
	QuoteOnly   bool     `json:"quote_only"`
}

func (s *Server) SubmitJob(c *gin.Context) {
	var body submitJobBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if s.submitLimiter != nil && !s.submitLimiter.Allow(body.CustomerID) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	job, err := s.jobSvc.Submit(c.Request.Context(), jobdomain.SubmitRequest{
		CustomerID:  body.CustomerID,
		ServiceType: body.ServiceType,
		Description: body.Description,
		EstimateMin: body.EstimateMin,
		EstimateMax: body.EstimateMax,
		QuoteOnly:   body.QuoteOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (s *Server) GetJob(c *gin.Context) {
	job, err := s.jobSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type listJobsQuery struct {
	PageToken    string `form:"page_token"`
	PageSize     int    `form:"page_size"`
	Status       string `form:"status"`
	CustomerID   string `form:"customer_id"`
	ContractorID string `form:"contractor_id"`
}

func (s *Server) ListJobs(c *gin.Context) {
	var query listJobsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.List(c.Request.Context(), jobdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status:       strings.TrimSpace(query.Status),
		CustomerID:   strings.TrimSpace(query.CustomerID),
		ContractorID: strings.TrimSpace(query.ContractorID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Jobs, "page_info": resp.PageInfo})
}

func (s *Server) GetJobHistory(c *gin.Context) {
	events, err := s.jobSvc.History(c.Request.Context(), c.Param("id"), 0)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

type acceptJobBody struct {
	ContractorID string `json:"contractor_id" binding:"required"`
}

func (s *Server) AcceptJob(c *gin.Context) {
	var body acceptJobBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.Accept(c.Request.Context(), jobdomain.AcceptRequest{
		JobID:        c.Param("id"),
		ContractorID: body.ContractorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type progressJobBody struct {
	ContractorID string `json:"contractor_id" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

func (s *Server) ProgressJob(c *gin.Context) {
	var body progressJobBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.Progress(c.Request.Context(), jobdomain.ProgressRequest{
		JobID:        c.Param("id"),
		ContractorID: body.ContractorID,
		Status:       body.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type startJobBody struct {
	ContractorID string   `json:"contractor_id" binding:"required"`
	Notes        string   `json:"notes"`
	BeforePhotos []string `json:"before_photos"`
}

func (s *Server) StartJob(c *gin.Context) {
	var body startJobBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.Start(c.Request.Context(), jobdomain.StartRequest{
		JobID:        c.Param("id"),
		ContractorID: body.ContractorID,
		Notes:        body.Notes,
		BeforePhotos: body.BeforePhotos,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type completeJobBody struct {
	ContractorID string               `json:"contractor_id" binding:"required"`
	FinalPrice   *float64             `json:"final_price"`
	MaterialFees float64              `json:"material_fees"`
	Tasks        []string             `json:"tasks"`
	Materials    []jobdomain.Material `json:"materials"`
	AfterPhotos  []string             `json:"after_photos"`
	Notes        string               `json:"notes"`
}

func (s *Server) CompleteJob(c *gin.Context) {
	var body completeJobBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.Complete(c.Request.Context(), jobdomain.CompleteRequest{
		JobID:        c.Param("id"),
		ContractorID: body.ContractorID,
		FinalPrice:   body.FinalPrice,
		MaterialFees: body.MaterialFees,
		Tasks:        body.Tasks,
		Materials:    body.Materials,
		AfterPhotos:  body.AfterPhotos,
		Notes:        body.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type contractorEndBody struct {
	ContractorID string `json:"contractor_id" binding:"required"`
	CauseCode    string `json:"cause_code" binding:"required"`
	Notes        string `json:"notes"`
}

func (s *Server) ContractorEndJob(c *gin.Context) {
	var body contractorEndBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.ContractorEnd(c.Request.Context(), jobdomain.ContractorEndRequest{
		JobID:        c.Param("id"),
		ContractorID: body.ContractorID,
		CauseCode:    body.CauseCode,
		Notes:        body.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type adminNotesBody struct {
	Notes string `json:"notes"`
}

func (s *Server) ApproveJob(c *gin.Context) {
	var body adminNotesBody
	_ = c.ShouldBindJSON(&body)

	job, err := s.jobSvc.Approve(c.Request.Context(), jobdomain.ApproveRequest{
		JobID: c.Param("id"),
		Notes: body.Notes,
		Actor: actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) AdminCancelJob(c *gin.Context) {
	var body adminNotesBody
	_ = c.ShouldBindJSON(&body)

	job, err := s.jobSvc.AdminCancel(c.Request.Context(), jobdomain.AdminCancelRequest{
		JobID: c.Param("id"),
		Notes: body.Notes,
		Actor: actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) AdminRelistJob(c *gin.Context) {
	var body adminNotesBody
	_ = c.ShouldBindJSON(&body)

	job, err := s.jobSvc.AdminRelist(c.Request.Context(), jobdomain.AdminRelistRequest{
		JobID: c.Param("id"),
		Notes: body.Notes,
		Actor: actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type reassignJobBody struct {
	ContractorID string `json:"contractor_id" binding:"required"`
	Notes        string `json:"notes"`
}

func (s *Server) AdminReassignJob(c *gin.Context) {
	var body reassignJobBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.AdminReassign(c.Request.Context(), jobdomain.AdminReassignRequest{
		JobID:        c.Param("id"),
		ContractorID: body.ContractorID,
		Notes:        body.Notes,
		Actor:        actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type paymentStatusBody struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) SetJobPaymentStatus(c *gin.Context) {
	var body paymentStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.SetPaymentStatus(c.Request.Context(), jobdomain.SetPaymentStatusRequest{
		JobID:  c.Param("id"),
		Status: body.Status,
		Actor:  actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
