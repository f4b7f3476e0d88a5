package server

import (
	"net/http"
	"strconv"

	payoutdomain "github.com/fixwell/backoffice/internal/payout/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) MarkPayoutReady(c *gin.Context) {
	job, err := s.payoutSvc.MarkReady(c.Request.Context(), payoutdomain.MarkReadyRequest{
		JobID: c.Param("id"),
		Actor: actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type payoutBatchBody struct {
	JobIDs []string `json:"job_ids" binding:"required"`
}

func (s *Server) ProcessPayoutBatch(c *gin.Context) {
	var body payoutBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.payoutSvc.ProcessBatch(c.Request.Context(), payoutdomain.BatchRequest{
		JobIDs: body.JobIDs,
		Actor:  actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type singlePayoutBody struct {
	JobIDs []string `json:"job_ids" binding:"required"`
	Amount *float64 `json:"amount"`
}

func (s *Server) ProcessSinglePayout(c *gin.Context) {
	var body singlePayoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.payoutSvc.ProcessSingle(c.Request.Context(), payoutdomain.SingleRequest{
		ContractorID: c.Param("id"),
		JobIDs:       body.JobIDs,
		Amount:       body.Amount,
		Actor:        actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type overridePayoutBody struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) OverridePayoutStatus(c *gin.Context) {
	var body overridePayoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.payoutSvc.Override(c.Request.Context(), payoutdomain.OverrideRequest{
		JobID:  c.Param("id"),
		Status: body.Status,
		Reason: body.Reason,
		Actor:  actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) ListReadyPayouts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	jobs, err := s.payoutSvc.ListReady(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}
