package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	v1 "github.com/vmunix/reelshelf/internal/api/v1"
	"github.com/vmunix/reelshelf/internal/events"
)

// Client wraps HTTP calls to a running reelshelf server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new reelshelf API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// API response types (mirror server types)

type StatusResponse struct {
	Status     string `json:"status"`
	Cache      string `json:"cache"`
	Profile    string `json:"profile,omitempty"`
	Permission string `json:"permission,omitempty"`
}

type EventResponse = v1.EventResponse

type ListEventsResponse struct {
	Items  []EventResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Verify(ctx context.Context) (*v1.VerifyResponse, error) {
	var resp v1.VerifyResponse
	if err := c.get(ctx, "/api/v1/verify", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events lists logged events, newest first. A non-empty entityID restricts
// the list to one media identity.
func (c *Client) Events(ctx context.Context, limit int, entityID string) (*ListEventsResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if entityID != "" {
		q.Set("entity_type", events.EntityMedia)
		q.Set("entity_id", entityID)
	}
	var resp ListEventsResponse
	if err := c.get(ctx, "/api/v1/events/log?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
