// Package goal implements AI-assisted savings goal creation: the goal
// webhook round trip, the fenced reply format, and the payment plan math.
package goal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bankassist/internal/webhook"
)

// Client talks to the goal and goal-image webhooks.
type Client struct {
	goalURL  string
	imageURL string
	httpc    *http.Client
	logger   *slog.Logger
}

type ClientConfig struct {
	GoalURL  string
	ImageURL string
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		goalURL:  cfg.GoalURL,
		imageURL: cfg.ImageURL,
		httpc:    webhook.NewHTTPClient(cfg.Timeout),
		logger:   cfg.Logger,
	}
}

type goalRequest struct {
	ChatInput string `json:"chatInput"`
	SessionID string `json:"sessionId"`
}

type goalEnvelope struct {
	Output string `json:"output"`
}

// CreateGoal posts one goal prompt and returns the agent's raw output text,
// which carries the fenced goal JSON.
func (c *Client) CreateGoal(ctx context.Context, chatInput, sessionID string) (string, error) {
	payload, err := json.Marshal(goalRequest{ChatInput: chatInput, SessionID: sessionID})
	if err != nil {
		return "", fmt.Errorf("encode goal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.goalURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build goal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("goal webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("goal webhook returned status %d", resp.StatusCode)
	}

	var envelopes []goalEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelopes); err != nil {
		return "", fmt.Errorf("decode goal response: %w", err)
	}
	if len(envelopes) == 0 || envelopes[0].Output == "" {
		return "", fmt.Errorf("goal response carried no output")
	}
	return envelopes[0].Output, nil
}

// GenerateImage asks the image webhook to illustrate a goal. Image
// generation is decorative: every failure degrades to an empty URL and the
// goal card renders without artwork.
func (c *Client) GenerateImage(ctx context.Context, prompt string) string {
	payload, err := json.Marshal(goalRequest{ChatInput: prompt})
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.imageURL, bytes.NewReader(payload))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("goal image request failed", "err", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("goal image request rejected", "status", resp.StatusCode)
		return ""
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Warn("goal image response unreadable", "err", err)
		return ""
	}
	return extractImageURL(raw)
}

// extractImageURL probes the known response shapes: an object keyed
// imageUrl, url, or image, or a bare JSON string.
func extractImageURL(raw json.RawMessage) string {
	var obj struct {
		ImageURL string `json:"imageUrl"`
		URL      string `json:"url"`
		Image    string `json:"image"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.ImageURL != "":
			return obj.ImageURL
		case obj.URL != "":
			return obj.URL
		case obj.Image != "":
			return obj.Image
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
