package server

import (
	"net/http"
	"strconv"
	"strings"

	reportdomain "github.com/fixwell/backoffice/internal/report/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) MonthToDateRevenue(c *gin.Context) {
	summary, err := s.reportSvc.MonthToDateRevenue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) PendingPayouts(c *gin.Context) {
	groups, err := s.reportSvc.PendingPayouts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

func (s *Server) PayoutHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	jobs, err := s.reportSvc.PayoutHistory(c.Request.Context(), reportdomain.HistoryRequest{
		ContractorID: strings.TrimSpace(c.Query("contractor_id")),
		Limit:        limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}
