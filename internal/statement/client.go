// Package statement uploads bank statements and free-form documents for
// server-side analysis.
package statement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bankassist/internal/webhook"
)

// Analysis is the analytics payload derived from one uploaded statement.
type Analysis struct {
	Period            string            `json:"period"`
	TotalBalance      decimal.Decimal   `json:"totalBalance"`
	TotalIncome       decimal.Decimal   `json:"totalIncome"`
	TotalExpenses     decimal.Decimal   `json:"totalExpenses"`
	CategoryBreakdown []CategoryShare   `json:"categoryBreakdown"`
	MonthlyTrends     []MonthlyTrend    `json:"monthlyTrends"`
	TopTransactions   []TransactionLine `json:"topTransactions"`
}

type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

type MonthlyTrend struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type TransactionLine struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
}

// FileInsight is the summary returned for a general document upload.
type FileInsight struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

// Client uploads statements and documents to the analysis backend.
type Client struct {
	analyzeURL string
	uploadURL  string
	httpc      *http.Client
	logger     *slog.Logger
}

type ClientConfig struct {
	AnalyzeURL string
	UploadURL  string
	Timeout    time.Duration
	Logger     *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		analyzeURL: cfg.AnalyzeURL,
		uploadURL:  cfg.UploadURL,
		httpc:      webhook.NewHTTPClient(cfg.Timeout),
		logger:     cfg.Logger,
	}
}

// AnalyzeStatement uploads one bank statement and returns its analytics.
func (c *Client) AnalyzeStatement(ctx context.Context, filename string, data []byte) (*Analysis, error) {
	var out Analysis
	if err := c.upload(ctx, c.analyzeURL, "statement", filename, data, &out); err != nil {
		return nil, fmt.Errorf("analyze statement: %w", err)
	}
	c.logger.Info("statement analyzed",
		"file", filename,
		"period", out.Period,
		"categories", len(out.CategoryBreakdown),
	)
	return &out, nil
}

// UploadDocument sends a general document for summarization.
func (c *Client) UploadDocument(ctx context.Context, filename string, data []byte) (*FileInsight, error) {
	var out FileInsight
	if err := c.upload(ctx, c.uploadURL, "file", filename, data, &out); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	return &out, nil
}

func (c *Client) upload(ctx context.Context, url, field, filename string, data []byte, out any) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write file data: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload rejected with status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
