package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	tariffdomain "github.com/aquametric/ratewise/internal/tariff/domain"
)

type createRateStructureRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Schedule    tariffdomain.Schedule `json:"schedule"`
}

func (s *Server) CreateRateStructure(c *gin.Context) {
	var req createRateStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	structure, err := s.tariffSvc.Create(c.Request.Context(), tariffdomain.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		Schedule:    req.Schedule,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, structure)
}

func (s *Server) ListRateStructures(c *gin.Context) {
	structures, err := s.tariffSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": structures})
}

func (s *Server) GetRateStructure(c *gin.Context) {
	structure, err := s.tariffSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, structure)
}

type activateRateStructureRequest struct {
	EffectiveDate string `json:"effective_date"`
}

func (s *Server) ActivateRateStructure(c *gin.Context) {
	var req activateRateStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	var effectiveDate *time.Time
	if value := strings.TrimSpace(req.EffectiveDate); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			AbortWithError(c, newValidationError("effective_date", "invalid_effective_date", "invalid effective_date"))
			return
		}
		effectiveDate = &parsed
	}

	structure, err := s.tariffSvc.Activate(c.Request.Context(), c.Param("id"), effectiveDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, structure)
}

type computeBillRequest struct {
	Consumption float64 `json:"consumption"`
}

func (s *Server) ComputeBill(c *gin.Context) {
	var req computeBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	amount, err := s.tariffSvc.ComputeBill(c.Request.Context(), c.Param("id"), req.Consumption)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordBillComputed()
	c.JSON(http.StatusOK, gin.H{
		"consumption": req.Consumption,
		"amount":      amount,
	})
}

type modelImpactsRequest struct {
	Schedule tariffdomain.Schedule `json:"schedule"`
}

func (s *Server) ModelImpacts(c *gin.Context) {
	var req modelImpactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	report, err := s.tariffSvc.ModelImpacts(c.Request.Context(), req.Schedule)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) OptimizeRates(c *gin.Context) {
	var req tariffdomain.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.tariffSvc.Optimize(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordOptimizeRun(result.ConstraintsSatisfied)
	c.JSON(http.StatusOK, result)
}
