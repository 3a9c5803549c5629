// Package webhook implements the clients for the conversational workflow
// engine: the multipart chat endpoint and the audio-processing endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"bankassist/internal/domain"
	"bankassist/internal/metrics"
)

// ClientConfig configures the workflow-engine client.
type ClientConfig struct {
	ChatURL  string
	AudioURL string
	HTTP     *http.Client
	Logger   *slog.Logger
}

// Client posts user turns and recorded audio to the workflow engine. Calls
// carry no explicit timeout; failures are terminal for that one request.
type Client struct {
	chatURL  string
	audioURL string
	httpc    *http.Client
	logger   *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTP == nil {
		cfg.HTTP = NewHTTPClient(0)
	}
	return &Client{
		chatURL:  cfg.ChatURL,
		audioURL: cfg.AudioURL,
		httpc:    cfg.HTTP,
		logger:   cfg.Logger,
	}
}

// ChatRequest is one outbound chat turn.
type ChatRequest struct {
	Text      string
	SessionID string
	File      *domain.FileRef
	FileData  []byte
}

// SendChat posts one multipart turn (chatInput, sessionId, optional data
// file) and returns the normalized display text of the reply.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chatInput", req.Text); err != nil {
		return "", fmt.Errorf("write chatInput: %w", err)
	}
	if err := writer.WriteField("sessionId", req.SessionID); err != nil {
		return "", fmt.Errorf("write sessionId: %w", err)
	}
	if req.File != nil {
		part, err := writer.CreateFormFile("data", req.File.Name)
		if err != nil {
			return "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(req.FileData); err != nil {
			return "", fmt.Errorf("write file data: %w", err)
		}
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpc.Do(httpReq)
	metrics.WebhookLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WebhookFailures.Inc()
		return "", fmt.Errorf("chat webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.WebhookFailures.Inc()
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat webhook error (status %d): %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	text, ok := DecodeReply(respBody)
	if !ok {
		text = DefaultReply
	}

	c.logger.Info("chat turn complete",
		"session", req.SessionID,
		"reply_len", len(text),
		"attachment", req.File != nil,
	)
	return text, nil
}

// audioEnvelope is the JSON shape of a non-binary audio response.
type audioEnvelope struct {
	AudioURL string `json:"audioUrl"`
	Response string `json:"response"`
	Message  string `json:"message"`
}

// ProcessAudio uploads one recorded utterance (webm container) and returns
// the negotiated reply: binary audio, an audio URL, or plain text.
func (c *Client) ProcessAudio(ctx context.Context, audio []byte) (*domain.AudioReply, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("data", "audio.webm")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.audioURL, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpc.Do(httpReq)
	metrics.WebhookLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WebhookFailures.Inc()
		return nil, fmt.Errorf("audio webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.WebhookFailures.Inc()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("audio webhook error (status %d): %s", resp.StatusCode, string(respBody))
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "audio") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read audio response: %w", err)
		}
		c.logger.Info("audio reply received", "mime", contentType, "bytes", len(data))
		return &domain.AudioReply{Kind: domain.AudioReplyBinary, Data: data, MIME: contentType}, nil
	}

	var env audioEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode audio response: %w", err)
	}
	if env.AudioURL != "" {
		c.logger.Info("audio reply received", "url", env.AudioURL)
		return &domain.AudioReply{Kind: domain.AudioReplyURL, URL: env.AudioURL}, nil
	}

	text := env.Response
	if text == "" {
		text = env.Message
	}
	if text == "" {
		text = "Получен ответ"
	}
	return &domain.AudioReply{Kind: domain.AudioReplyText, Text: text}, nil
}
