package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appvalidation "github.com/pharmacy/backend/internal/application/validation"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/validation"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
)

// ValidationService is the validation gate and quarantine review workflow
type ValidationService interface {
	Validate(ctx context.Context, rec record.Record) (*validation.Result, error)
	ReviewQuarantined(ctx context.Context, tenantID, id uuid.UUID, action validation.ReviewAction, correctedPayload []byte, reviewedBy string) (*appvalidation.ReviewOutcome, error)
	ListQuarantined(ctx context.Context, tenantID uuid.UUID, filter validation.QuarantineFilter) ([]*validation.QuarantinedRecord, int64, error)
	Statistics(ctx context.Context, tenantID uuid.UUID) (*validation.QuarantineStatistics, error)
	ComplianceReport(ctx context.Context, tenantID uuid.UUID) (*validation.ComplianceReport, error)
}

// ValidationHandler exposes the validation gate over HTTP
type ValidationHandler struct {
	BaseHandler
	gate ValidationService
}

// NewValidationHandler creates a new ValidationHandler
func NewValidationHandler(gate ValidationService) *ValidationHandler {
	return &ValidationHandler{gate: gate}
}

// RegisterRoutes registers validation routes
func (h *ValidationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/sync")
	{
		group.POST("/validate", h.Validate)
		group.GET("/quarantine", h.ListQuarantined)
		group.GET("/quarantine/statistics", h.QuarantineStatistics)
		group.GET("/quarantine/compliance-report", h.ComplianceReport)
		group.POST("/quarantine/:id/review", h.ReviewQuarantined)
	}
}

type validateRequest struct {
	RecordType string          `json:"record_type" binding:"required"`
	Data       json.RawMessage `json:"data" binding:"required"`
}

type reviewRequest struct {
	Action           string          `json:"action" binding:"required"`
	CorrectedPayload json.RawMessage `json:"corrected_payload"`
	ReviewedBy       string          `json:"reviewed_by"`
}

type listQuarantineRequest struct {
	dto.ListRequest
	RecordType  string `form:"record_type"`
	Disposition string `form:"disposition"`
}

func (r *listQuarantineRequest) toFilter() (validation.QuarantineFilter, error) {
	r.Normalize()
	filter := validation.QuarantineFilter{Page: r.Page, PageSize: r.PageSize}

	if r.RecordType != "" {
		t := record.Type(r.RecordType)
		if !t.IsValid() {
			return filter, errInvalidFilter("record_type", r.RecordType)
		}
		filter.RecordType = &t
	}
	if r.Disposition != "" {
		d := validation.Disposition(r.Disposition)
		if !d.IsValid() {
			return filter, errInvalidFilter("disposition", r.Disposition)
		}
		filter.Disposition = &d
	}
	return filter, nil
}

type quarantinedResponse struct {
	ID               uuid.UUID       `json:"id"`
	RecordType       string          `json:"record_type"`
	RecordID         string          `json:"record_id"`
	RawPayload       json.RawMessage `json:"raw_payload"`
	Errors           []string        `json:"errors"`
	Disposition      string          `json:"disposition"`
	CorrectedPayload json.RawMessage `json:"corrected_payload,omitempty"`
	QuarantinedAt    time.Time       `json:"quarantined_at"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy       string          `json:"reviewed_by,omitempty"`
}

func newQuarantinedResponses(records []*validation.QuarantinedRecord) []quarantinedResponse {
	responses := make([]quarantinedResponse, len(records))
	for i, q := range records {
		responses[i] = quarantinedResponse{
			ID:               q.ID,
			RecordType:       q.RecordType.String(),
			RecordID:         q.RecordID,
			RawPayload:       q.RawPayload,
			Errors:           q.Errors,
			Disposition:      string(q.Disposition),
			CorrectedPayload: q.CorrectedPayload,
			QuarantinedAt:    q.QuarantinedAt,
			ReviewedAt:       q.ReviewedAt,
			ReviewedBy:       q.ReviewedBy,
		}
	}
	return responses
}

// Validate runs a payload through the validation gate
func (h *ValidationHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rec, err := record.UnmarshalPayload(record.Type(req.RecordType), req.Data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.gate.Validate(c.Request.Context(), rec)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListQuarantined lists quarantined records matching the query filters
func (h *ValidationHandler) ListQuarantined(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req listQuarantineRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records, total, err := h.gate.ListQuarantined(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, newQuarantinedResponses(records), total, filter.Page, filter.PageSize)
}

// ReviewQuarantined applies a reviewer's decision to a quarantined record
func (h *ValidationHandler) ReviewQuarantined(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quarantine ID")
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	outcome, err := h.gate.ReviewQuarantined(c.Request.Context(), tenantID, id,
		validation.ReviewAction(req.Action), req.CorrectedPayload, req.ReviewedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// QuarantineStatistics returns grouped quarantine counts
func (h *ValidationHandler) QuarantineStatistics(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	stats, err := h.gate.Statistics(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ComplianceReport returns validation ratios over the trailing window
func (h *ValidationHandler) ComplianceReport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	report, err := h.gate.ComplianceReport(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
