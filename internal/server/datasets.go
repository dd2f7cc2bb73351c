package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
	"github.com/aquametric/ratewise/internal/principal"
)

func (s *Server) ImportDataset(c *gin.Context) {
	ctx := c.Request.Context()

	if s.importLimiter.Enabled() {
		actor, _ := principal.FromContext(ctx)
		allowed, err := s.importLimiter.AllowImport(ctx, actor.ID.String())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !allowed {
			s.metrics.RecordImportDenied()
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	var req billingdomain.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dataset, err := s.billingSvc.Import(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dataset)
}

func (s *Server) ListDatasets(c *gin.Context) {
	datasets, err := s.billingSvc.ListDatasets(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": datasets})
}

func (s *Server) GetDataset(c *gin.Context) {
	dataset, err := s.billingSvc.GetDataset(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataset)
}

func (s *Server) CommitDataset(c *gin.Context) {
	ctx := c.Request.Context()

	token, locked, err := s.importLimiter.TryLockCommit(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !locked {
		AbortWithError(c, ErrConflict)
		return
	}
	defer func() {
		_ = s.importLimiter.ReleaseCommit(ctx, token)
	}()

	dataset, err := s.billingSvc.Commit(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataset)
}

// ExportDataset streams a dataset's bill records and records the export
// in the audit ledger.
func (s *Server) ExportDataset(c *gin.Context) {
	ctx := c.Request.Context()

	dataset, err := s.billingSvc.GetDataset(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bills, err := s.billingSvc.DatasetBills(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionDataExport,
		ResourceType: "dataset",
		ResourceID:   dataset.ID.String(),
		Description:  "dataset exported",
		Metadata: map[string]any{
			"name":      dataset.Name,
			"row_count": len(bills),
		},
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dataset": dataset, "bills": bills})
}
