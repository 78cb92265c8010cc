package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/sync"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
)

type syncEntitiesRequest struct {
	EntityType string   `json:"entity_type" binding:"required,record_type"`
	EntityIDs  []string `json:"entity_ids" binding:"required,min=1"`
}

type resolveConflictRequest struct {
	Strategy     string          `json:"strategy" binding:"required,resolution_strategy"`
	ResolvedData json.RawMessage `json:"resolved_data"`
	ResolvedBy   string          `json:"resolved_by"`
}

type listConflictsRequest struct {
	dto.ListRequest
	RecordType   string `form:"record_type"`
	Status       string `form:"status"`
	ConflictType string `form:"conflict_type"`
}

func (r *listConflictsRequest) toFilter() (sync.ConflictFilter, error) {
	r.Normalize()
	filter := sync.ConflictFilter{Page: r.Page, PageSize: r.PageSize}

	if r.RecordType != "" {
		t := record.Type(r.RecordType)
		if !t.IsValid() {
			return filter, errInvalidFilter("record_type", r.RecordType)
		}
		filter.RecordType = &t
	}
	if r.Status != "" {
		s := sync.ConflictStatus(r.Status)
		filter.Status = &s
	}
	if r.ConflictType != "" {
		ct := sync.ConflictType(r.ConflictType)
		if !ct.IsValid() {
			return filter, errInvalidFilter("conflict_type", r.ConflictType)
		}
		filter.ConflictType = &ct
	}
	return filter, nil
}

type conflictResponse struct {
	ID              uuid.UUID      `json:"id"`
	RecordID        string         `json:"record_id"`
	RecordType      string         `json:"record_type"`
	ConflictType    string         `json:"conflict_type"`
	Status          string         `json:"status"`
	Strategy        *string        `json:"strategy,omitempty"`
	MainSnapshot    record.Record  `json:"main_snapshot"`
	ServiceSnapshot record.Record  `json:"service_snapshot"`
	ResolvedValue   *record.Record `json:"resolved_value,omitempty"`
	ResolvedBy      string         `json:"resolved_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
}

func newConflictResponse(c *sync.Conflict) conflictResponse {
	resp := conflictResponse{
		ID:              c.ID,
		RecordID:        c.RecordID,
		RecordType:      c.RecordType.String(),
		ConflictType:    string(c.ConflictType),
		Status:          string(c.Status),
		MainSnapshot:    c.MainSnapshot,
		ServiceSnapshot: c.ServiceSnapshot,
		ResolvedValue:   c.ResolvedValue,
		ResolvedBy:      c.ResolvedBy,
		CreatedAt:       c.CreatedAt,
		ResolvedAt:      c.ResolvedAt,
	}
	if c.Strategy != nil {
		s := c.Strategy.String()
		resp.Strategy = &s
	}
	return resp
}

func newConflictResponses(conflicts []*sync.Conflict) []conflictResponse {
	responses := make([]conflictResponse, len(conflicts))
	for i, c := range conflicts {
		responses[i] = newConflictResponse(c)
	}
	return responses
}

type auditEntryResponse struct {
	ID              uuid.UUID     `json:"id"`
	ConflictID      uuid.UUID     `json:"conflict_id"`
	RecordID        string        `json:"record_id"`
	RecordType      string        `json:"record_type"`
	Strategy        string        `json:"strategy"`
	MainSnapshot    record.Record `json:"main_snapshot"`
	ServiceSnapshot record.Record `json:"service_snapshot"`
	ResolvedValue   record.Record `json:"resolved_value"`
	ResolvedBy      string        `json:"resolved_by"`
	ResolvedAt      time.Time     `json:"resolved_at"`
}

func newAuditEntryResponses(entries []*sync.AuditEntry) []auditEntryResponse {
	responses := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = auditEntryResponse{
			ID:              e.ID,
			ConflictID:      e.ConflictID,
			RecordID:        e.RecordID,
			RecordType:      e.RecordType.String(),
			Strategy:        e.Strategy.String(),
			MainSnapshot:    e.MainSnapshot,
			ServiceSnapshot: e.ServiceSnapshot,
			ResolvedValue:   e.ResolvedValue,
			ResolvedBy:      e.ResolvedBy,
			ResolvedAt:      e.ResolvedAt,
		}
	}
	return responses
}
