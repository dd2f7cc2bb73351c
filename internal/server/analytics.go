package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquametric/ratewise/internal/analytics/aggregate"
	analyticsdomain "github.com/aquametric/ratewise/internal/analytics/domain"
)

type analyticsOverviewQuery struct {
	CoverageRatio    float64 `form:"coverage_ratio"`
	RevenueChange    float64 `form:"revenue_change"`
	CollectionChange float64 `form:"collection_change"`
	CustomerChange   float64 `form:"customer_change"`
	CoverageChange   float64 `form:"coverage_change"`
}

func (s *Server) AnalyticsOverview(c *gin.Context) {
	var query analyticsOverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	snapshot, err := s.analyticsSvc.Overview(c.Request.Context(), aggregate.External{
		CoverageRatio:    query.CoverageRatio,
		RevenueChange:    query.RevenueChange,
		CollectionChange: query.CollectionChange,
		CustomerChange:   query.CustomerChange,
		CoverageChange:   query.CoverageChange,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) AnalyticsTrends(c *gin.Context) {
	metric, err := analyticsdomain.ParseTrendMetric(c.Query("metric"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	points, err := s.analyticsSvc.Trends(c.Request.Context(), metric)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metric": metric, "data": points})
}

func (s *Server) AnalyticsCohorts(c *gin.Context) {
	cohorts, err := s.analyticsSvc.Cohorts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cohorts})
}
