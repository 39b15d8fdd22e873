package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid config",
			config: Config{APIKey: "test-key"},
		},
		{
			name:    "missing API key",
			config:  Config{},
			wantErr: true,
		},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "claude-3-opus-20240229",
				Temperature: 0.5,
				MaxTokens:   200,
				BaseURL:     "http://localhost:1234/",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newAnthropicClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: "http://localhost:1234/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1234", client.baseURL)
	assert.Equal(t, 1024, client.maxTokens)
}

func TestAnthropicClient_Complete(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "ADDENDUM "}, {"type": "text", "text": "TEXT"}],
			"usage": {"input_tokens": 12, "output_tokens": 34}
		}`))
	}))
	defer srv.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "draft", Prompt: "closing extension"})
	require.NoError(t, err)

	assert.Equal(t, "ADDENDUM TEXT", resp.Text)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 34, resp.OutputTokens)
	assert.Equal(t, "draft", gotBody["system"])
	assert.Equal(t, "claude-3-5-sonnet-latest", gotBody["model"])
}

func TestAnthropicClient_Errors(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		status        int
		wantRetryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":"slow down"}`, wantRetryable: true},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`, wantRetryable: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"bad"}`},
		{name: "empty content", status: http.StatusOK, body: `{"content": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)
			assert.Equal(t, tt.wantRetryable, common.IsRetryable(err))
		})
	}
}
