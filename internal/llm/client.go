package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Vision transcription runs warmer than transaction extraction; these mirror
// the upstream model card defaults.
const (
	visionTemperature = 0.6
	visionMaxTokens   = 8192
	visionTopP        = 0.95

	textMaxTokens = 4000
)

// Config for the completion API client (OpenAI-compatible endpoint).
type Config struct {
	APIKey      string        // if empty, falls back to env GROQ_API_KEY
	BaseURL     string        // default https://api.groq.com/openai/v1
	Model       string        // text extraction model
	VisionModel string        // page transcription model
	Temperature float32       // sampling temperature for text extraction
	Timeout     time.Duration // http client timeout
}

// Client is an explicitly constructed completion API client. It is passed
// into each engine rather than accessed as shared global state.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "meta-llama/llama-4-scout-17b-16e-instruct"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Configured reports whether a credential is available.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// CompleteText sends a system+user chat completion requesting strict JSON
// output and returns the assistant message content.
func (c *Client) CompleteText(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      textMaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	return c.complete(ctx, body)
}

// CompleteVision sends one page image (as a data URL) for literal
// transcription and returns the assistant message content.
func (c *Client) CompleteVision(ctx context.Context, system, imageDataURL string) (string, error) {
	body := map[string]any{
		"model":                 c.cfg.VisionModel,
		"temperature":           visionTemperature,
		"max_completion_tokens": visionMaxTokens,
		"top_p":                 visionTopP,
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": []map[string]any{
				{"type": "image_url", "image_url": map[string]any{"url": imageDataURL}},
			}},
		},
	}
	return c.complete(ctx, body)
}

func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	raw, err := c.postJSON(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}
