// Package stats fetches financial aggregates from the statistics backend and
// prepares them for the dashboard.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bankassist/internal/domain"
	"bankassist/internal/webhook"
)

// StatusError reports a non-2xx answer from the statistics backend. It means
// the service is reachable but refused the request, which is a real answer
// and must not be papered over with demo data.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("statistics backend returned status %d", e.Code)
}

// Client talks to the statistics REST API. Each call is bounded by its own
// timeout; the tunnel interstitial is skipped with the ngrok bypass header.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   webhook.NewHTTPClient(cfg.Timeout),
		logger:  cfg.Logger,
	}
}

// UserStatistics fetches the per-user aggregate.
func (c *Client) UserStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error) {
	var out domain.UserStatistics
	if err := c.get(ctx, "/statistics/user/"+userID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OverviewStatistics fetches the system-wide aggregate.
func (c *Client) OverviewStatistics(ctx context.Context) (*domain.OverviewStatistics, error) {
	var out domain.OverviewStatistics
	if err := c.get(ctx, "/statistics/overview", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CategoryStatistics fetches the per-user category breakdown.
func (c *Client) CategoryStatistics(ctx context.Context, userID string) (*domain.CategoryStatistics, error) {
	var out domain.CategoryStatistics
	if err := c.get(ctx, "/statistics/categories/user/"+userID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build statistics request: %w", err)
	}
	req.Header.Set("ngrok-skip-browser-warning", "true")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("statistics request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode statistics response %s: %w", path, err)
	}
	return nil
}
