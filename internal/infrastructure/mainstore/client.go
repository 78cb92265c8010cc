package mainstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the main store (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ErrUnavailable indicates the main hospital store could not be reached
var ErrUnavailable = errors.New("mainstore: main store unavailable")

// ErrRequestFailed indicates the main store rejected a request
var ErrRequestFailed = errors.New("mainstore: request failed")

// ErrMalformedResponse indicates the main store returned a record that does
// not satisfy the tagged-union shape
var ErrMalformedResponse = errors.New("mainstore: malformed response")

var _ record.Store = (*Client)(nil)

// Client implements record.Store against the main hospital system's record
// API. The main store owns these records; Create and Update push the pharmacy
// copy back when a resolution decides the microservice value wins.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a main store client from sync configuration
func NewClient(cfg *config.SyncConfig) *Client {
	return &Client{
		baseURL: cfg.MainStoreURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

type listResponse struct {
	Records []record.Record `json:"records"`
}

// List returns all records of a type for a tenant, optionally filtered by
// modification time
func (c *Client) List(ctx context.Context, tenantID uuid.UUID, t record.Type, since *time.Time) ([]record.Record, error) {
	query := url.Values{}
	query.Set("tenant_id", tenantID.String())
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}

	body, err := c.doRequest(ctx, http.MethodGet, c.recordsPath(t)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("mainstore: failed to decode list response: %w", err)
	}
	if err := validateRecords(resp.Records); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// ListByIDs returns the records with the given store-assigned identifiers
func (c *Client) ListByIDs(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) ([]record.Record, error) {
	payload, err := json.Marshal(map[string]any{
		"tenant_id": tenantID,
		"ids":       ids,
	})
	if err != nil {
		return nil, fmt.Errorf("mainstore: failed to encode query: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.recordsPath(t)+"/query", payload)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("mainstore: failed to decode query response: %w", err)
	}
	if err := validateRecords(resp.Records); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// validateRecords rejects responses carrying a type tag without the matching
// payload. Callers dereference the payload, so a malformed record must fail
// here as an error rather than propagate.
func validateRecords(recs []record.Record) error {
	for i := range recs {
		if err := recs[i].Validate(); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrMalformedResponse, i, err)
		}
	}
	return nil
}

// Create inserts a record into the main store
func (c *Client) Create(ctx context.Context, rec record.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("mainstore: failed to encode record: %w", err)
	}
	_, err = c.doRequest(ctx, http.MethodPost, c.recordsPath(rec.Type), payload)
	return err
}

// Update overwrites an existing record in the main store
func (c *Client) Update(ctx context.Context, rec record.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("mainstore: failed to encode record: %w", err)
	}
	_, err = c.doRequest(ctx, http.MethodPut, c.recordsPath(rec.Type)+"/"+url.PathEscape(rec.ID()), payload)
	return err
}

func (c *Client) recordsPath(t record.Type) string {
	return c.baseURL + "/api/records/" + t.String()
}

func (c *Client) doRequest(ctx context.Context, method, requestURL string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("mainstore: failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mainstore: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return nil, shared.ErrAlreadyExists
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	return body, nil
}
