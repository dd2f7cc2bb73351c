package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	forecastdomain "github.com/aquametric/ratewise/internal/forecast/domain"
)

func (s *Server) CreateAssumption(c *gin.Context) {
	var req forecastdomain.CreateAssumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	assumption, err := s.forecastSvc.CreateAssumption(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assumption)
}

func (s *Server) ListAssumptions(c *gin.Context) {
	assumptions, err := s.forecastSvc.ListAssumptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assumptions})
}

func (s *Server) RunForecast(c *gin.Context) {
	var req forecastdomain.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.forecastSvc.Run(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordForecastRun()
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListForecasts(c *gin.Context) {
	forecasts, err := s.forecastSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": forecasts})
}

func (s *Server) GetForecast(c *gin.Context) {
	resp, err := s.forecastSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
