package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, nil)
}

func TestCompleteText(t *testing.T) {
	t.Run("returns trimmed assistant content", func(t *testing.T) {
		var gotAuth, gotContentType string
		var gotBody map[string]any
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"transactions\":[]}  "}}]}`))
		})

		out, err := c.CompleteText(context.Background(), "system", "user")
		require.NoError(t, err)
		assert.Equal(t, `{"transactions":[]}`, out)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "llama-3.3-70b-versatile", gotBody["model"])
	})

	t.Run("non-2xx status is an error with body snippet", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
		})

		_, err := c.CompleteText(context.Background(), "system", "user")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "rate limit exceeded")
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		})

		_, err := c.CompleteText(context.Background(), "system", "user")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})
}

func TestConfigured(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	assert.False(t, NewClient(Config{}, nil).Configured())
	assert.True(t, NewClient(Config{APIKey: "k"}, nil).Configured())
}
