package server

import (
	"net/http"

	contractordomain "github.com/fixwell/backoffice/internal/contractor/domain"
	"github.com/gin-gonic/gin"
)

type createContractorBody struct {
	Name string `json:"name" binding:"required"`
	Tier string `json:"tier"`
}

func (s *Server) CreateContractor(c *gin.Context) {
	var body createContractorBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contractor, err := s.contractorSvc.Create(c.Request.Context(), contractordomain.CreateContractorRequest{
		Name: body.Name,
		Tier: body.Tier,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contractor)
}

func (s *Server) GetContractor(c *gin.Context) {
	contractor, err := s.contractorSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractor)
}

type setTierBody struct {
	Tier string `json:"tier" binding:"required"`
}

func (s *Server) SetContractorTier(c *gin.Context) {
	var body setTierBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contractor, err := s.contractorSvc.SetTier(c.Request.Context(), contractordomain.SetTierRequest{
		ID:   c.Param("id"),
		Tier: body.Tier,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractor)
}
