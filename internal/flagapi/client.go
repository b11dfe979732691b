// Package flagapi is the client for the managed flag service that
// hosts the segment rule this job reconciles.
package flagapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Clause matches a user attribute against a list of values.
type Clause struct {
	Attribute string   `json:"attribute"`
	Op        string   `json:"op"`
	Values    []string `json:"values"`
	Negate    bool     `json:"negate"`
}

// Rule is one targeting rule of a segment. The pipeline repurposes
// Description to carry the run watermark.
type Rule struct {
	Description string   `json:"description"`
	Clauses     []Clause `json:"clauses"`
}

// Segment is the remote mutable rule document.
type Segment struct {
	Key   string `json:"key,omitempty"`
	Name  string `json:"name,omitempty"`
	Rules []Rule `json:"rules"`
}

// PatchOperation is one JSON-patch operation against the segment.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value Rule   `json:"value"`
}

// Client talks to one segment of the flag service.
type Client struct {
	HTTPClient  *http.Client
	BaseURL     string
	Token       string
	Project     string
	Environment string
	Segment     string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) segmentURL() string {
	return fmt.Sprintf("%s/api/v2/segments/%s/%s/%s", c.BaseURL, c.Project, c.Environment, c.Segment)
}

// GetSegment fetches the current segment document.
func (c *Client) GetSegment(ctx context.Context) (Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.segmentURL(), nil)
	if err != nil {
		return Segment{}, err
	}
	req.Header.Set("Authorization", c.Token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Segment{}, fmt.Errorf("get segment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Segment{}, statusError("get segment", resp)
	}

	var seg Segment
	if err := json.NewDecoder(resp.Body).Decode(&seg); err != nil {
		return Segment{}, fmt.Errorf("decode segment: %w", err)
	}
	return seg, nil
}

// Patch applies the given operations to the segment.
func (c *Client) Patch(ctx context.Context, ops []PatchOperation) error {
	body, err := json.Marshal(ops)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.segmentURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("patch segment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("patch segment", resp)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: %s: %s", op, resp.Status, bytes.TrimSpace(snippet))
}
