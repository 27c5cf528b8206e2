package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "github.com/buynest/backend/internal/application/analysis"
	domain "github.com/buynest/backend/internal/domain/analysis"
	"github.com/buynest/backend/internal/interfaces/http/dto"
	"github.com/buynest/backend/internal/interfaces/http/middleware"
)

// AnalysisHandler serves the financial summary and PDF export endpoints
type AnalysisHandler struct {
	BaseHandler
	analysis *app.Service
	export   *app.ExportService
	logger   *zap.Logger
}

// NewAnalysisHandler creates an analysis handler
func NewAnalysisHandler(analysis *app.Service, export *app.ExportService, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{analysis: analysis, export: export, logger: logger}
}

// RegisterRoutes registers analysis routes
func (h *AnalysisHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/analysis")
	group.POST("/summary", h.ComputeSummary)
	group.GET("/summary", h.StorefrontSummary)
	group.POST("/export", h.ExportReport)
	group.GET("/export", h.StorefrontExport)
}

// ComputeSummary computes a financial summary over raw order and
// supplier streams supplied in the request body
func (h *AnalysisHandler) ComputeSummary(c *gin.Context) {
	var req dto.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.analysis.Compute(c.Request.Context(), toComputeRequest(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// StorefrontSummary computes a financial summary over data fetched
// from the storefront API
func (h *AnalysisHandler) StorefrontSummary(c *gin.Context) {
	var query dto.RangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.analysis.ComputeFromStorefront(c.Request.Context(), query.From, query.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExportReport assembles the PDF report over raw streams from the body
func (h *AnalysisHandler) ExportReport(c *gin.Context) {
	var req dto.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.export.Export(c.Request.Context(), toComputeRequest(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.sendPDF(c, result)
}

// StorefrontExport assembles the PDF report over storefront data
func (h *AnalysisHandler) StorefrontExport(c *gin.Context) {
	var query dto.RangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.export.ExportFromStorefront(c.Request.Context(), query.From, query.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.sendPDF(c, result)
}

func (h *AnalysisHandler) sendPDF(c *gin.Context, result *app.ExportResult) {
	if len(result.SkippedRegions) > 0 {
		h.logger.Warn("report exported with skipped regions",
			zap.Strings("regions", result.SkippedRegions))
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

func toComputeRequest(req dto.AnalysisRequest) app.ComputeRequest {
	return app.ComputeRequest{
		Orders:    toRawRecords(req.Orders),
		Suppliers: toRawRecords(req.Suppliers),
		From:      req.From,
		To:        req.To,
	}
}

func toRawRecords(in []map[string]interface{}) []domain.RawRecord {
	out := make([]domain.RawRecord, 0, len(in))
	for _, r := range in {
		out = append(out, domain.RawRecord(r))
	}
	return out
}
