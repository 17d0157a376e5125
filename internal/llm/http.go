package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// errorBodySnippet bounds how much of a failing response body is carried in
// the returned error.
const errorBodySnippet = 256

// postJSON posts a JSON body to the completion endpoint with the client's
// bearer credential and returns the raw response body. A non-2xx status is an
// error carrying a snippet of the body for diagnosis.
func (c *Client) postJSON(ctx context.Context, url string, body any) ([]byte, error) {
	reqID := uuid.NewString()
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("llm.http.request", "req_id", reqID, "url", url, "bytes", len(payload))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("llm.http.send_failed",
			"req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("llm.http.body_close_failed", "req_id", reqID, "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return raw, fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, snippet(raw))
	}
	return raw, nil
}

func snippet(raw []byte) string {
	if len(raw) > errorBodySnippet {
		raw = raw[:errorBodySnippet]
	}
	return string(bytes.TrimSpace(raw))
}
