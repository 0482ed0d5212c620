package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// Client talks to a remote reportql server. It satisfies the transport
// interface the protocol executor polls against.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// RunQuery submits an analytics configuration.
func (c *Client) RunQuery(ctx context.Context, cfg core.QueryConfig) (*core.ExecutionResponse, error) {
	var resp core.ExecutionResponse
	if err := c.post(ctx, "/api/queries", cfg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJob polls a job handle.
func (c *Client) GetJob(ctx context.Context, jobID string) (*core.ExecutionResponse, error) {
	var resp core.ExecutionResponse
	if err := c.get(ctx, "/api/jobs/"+jobID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunPreview executes a row-preview request.
func (c *Client) RunPreview(ctx context.Context, req core.PreviewRequest) (*core.QueryResult, error) {
	var result core.QueryResult
	if err := c.post(ctx, "/api/preview", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Models fetches the queryable model catalog.
func (c *Client) Models(ctx context.Context) ([]core.DataModel, error) {
	var resp struct {
		Models []core.DataModel `json:"models"`
	}
	if err := c.get(ctx, "/api/models", &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var remote errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&remote); err == nil && remote.Error != "" {
			return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, remote.Error)
		}
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
