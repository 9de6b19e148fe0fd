package pydata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pydata-graph/backend/pkg/errors"
	"pydata-graph/backend/pkg/logger"
)

// Client talks to a PyData (pretalx-style) CfP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new CfP API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Get(),
	}
}

// FetchSubmissions retrieves up to limit submission records. An empty
// result set is not an error; the caller gets an empty page.
func (c *Client) FetchSubmissions(ctx context.Context, limit int) (*SubmissionsPage, error) {
	url := fmt.Sprintf("%s/submissions?limit=%d", c.baseURL, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFetchFailed(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewFetchFailed(url, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var page SubmissionsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.NewFetchFailed(url, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	c.logger.Info("Fetched submissions",
		zap.String("url", url),
		zap.Int("count", len(page.Results)),
	)
	return &page, nil
}
