// Package remote is the HTTP client for the hosted invoicing backend. It is
// the only network surface of the application; the sync engine consumes it
// through an interface so tests can substitute fakes.
package remote

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

	"github.com/keval/invo/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the invoicing backend.
type Client struct {
	BaseURL  string
	APIKey   string
	DeviceID string
	HTTP     *http.Client
}

// New creates a new backend client.
func New(baseURL, apiKey, deviceID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, "GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectAllByTenant fetches every record of a tenant-scoped table.
func (c *Client) SelectAllByTenant(ctx context.Context, table, tenantID string) ([]models.Record, error) {
	var recs []models.Record
	path := fmt.Sprintf("/v1/companies/%s/%s", url.PathEscape(tenantID), url.PathEscape(table))
	if err := c.do(ctx, "GET", path, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// SelectAll fetches every record of a table without tenant filtering. The
// line-items table has no company column on the backend and only exposes
// this form.
func (c *Client) SelectAll(ctx context.Context, table string) ([]models.Record, error) {
	var recs []models.Record
	if err := c.do(ctx, "GET", "/v1/"+url.PathEscape(table), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Insert creates a record and returns the server's authoritative copy.
func (c *Client) Insert(ctx context.Context, table string, rec models.Record) (models.Record, error) {
	var resp models.Record
	if err := c.do(ctx, "POST", "/v1/"+url.PathEscape(table), rec, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Update applies a partial update by id and returns the updated record.
func (c *Client) Update(ctx context.Context, table, id string, partial models.Record) (models.Record, error) {
	var resp models.Record
	path := fmt.Sprintf("/v1/%s/%s", url.PathEscape(table), url.PathEscape(id))
	if err := c.do(ctx, "PATCH", path, partial, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	path := fmt.Sprintf("/v1/%s/%s", url.PathEscape(table), url.PathEscape(id))
	return c.do(ctx, "DELETE", path, nil, nil)
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// do executes a request against the backend and decodes the JSON response
// into result when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.DeviceID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		detail := string(respBody)
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			detail = apiErr.Error()
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrForbidden, detail)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, detail)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
