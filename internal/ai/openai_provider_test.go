package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromatch/internal/config"
	"neuromatch/internal/errors"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(&config.AIConfig{BaseURL: srv.URL, APIKey: "sk-test"}, errors.Discard())
}

func TestOpenAIProviderComplete(t *testing.T) {
	var got chatCompletionRequest
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "deepseek-chat",
			"choices": [{"message": {"role": "assistant", "content": "{\"summary\":\"ok\"}"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	})

	gen, err := provider.Complete(context.Background(), "deepseek-chat", GenerationRequest{
		Section:         "summary",
		Messages:        []Message{{Role: RoleSystem, Content: "json only"}, {Role: RoleUser, Content: "hi"}},
		MaxOutputTokens: 900,
		Temperature:     0.2,
		JSON:            true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"summary":"ok"}`, gen.Text)
	assert.Equal(t, "deepseek-chat", gen.Model)
	require.NotNil(t, gen.Usage)
	assert.Equal(t, int64(17), gen.Usage.TotalTokens)

	assert.Equal(t, "deepseek-chat", got.Model)
	assert.Equal(t, 900, got.MaxTokens)
	assert.Equal(t, map[string]string{"type": "json_object"}, got.ResponseFormat)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
}

func TestOpenAIProviderBadStatusTruncatesPayload(t *testing.T) {
	body := strings.Repeat("限", 500)
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, body, http.StatusBadGateway)
	})

	_, err := provider.Complete(context.Background(), "m", GenerationRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAIBadStatus, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.Context["status"])

	payload, _ := appErr.Context["payload"].(string)
	assert.Equal(t, PayloadLimit, utf8.RuneCountInString(payload))
}

func TestOpenAIProviderMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>gateway</html>`},
		{"no choices", `{"choices": []}`},
		{"content not a string", `{"choices": [{"message": {"content": null}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := provider.Complete(context.Background(), "m", GenerationRequest{
				Messages: []Message{{Role: RoleUser, Content: "hi"}},
			})
			assert.Equal(t, errors.ErrCodeAIMalformed, errors.CodeOf(err))
		})
	}
}

func TestOpenAIProviderEmptyContentIsNotAnError(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": ""}}]}`))
	})

	gen, err := provider.Complete(context.Background(), "m", GenerationRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Empty(t, gen.Text)
}

func TestChatCompletionsURL(t *testing.T) {
	assert.Equal(t, "https://api.deepseek.com/v1/chat/completions", chatCompletionsURL("https://api.deepseek.com"))
	assert.Equal(t, "https://api.deepseek.com/v1/chat/completions", chatCompletionsURL("https://api.deepseek.com/"))
	assert.Equal(t, "https://llm.local/v1/chat/completions", chatCompletionsURL("https://llm.local/v1"))
}

func TestOpenAIProviderDescribeModel(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models/deepseek-chat" {
			_, _ = w.Write([]byte(`{"id": "deepseek-chat", "owned_by": "deepseek"}`))
			return
		}
		http.NotFound(w, r)
	})

	info := provider.DescribeModel(context.Background(), "deepseek-chat")
	assert.True(t, info.Available)
	assert.Equal(t, "deepseek-chat (deepseek)", info.DisplayName)

	missing := provider.DescribeModel(context.Background(), "nope")
	assert.False(t, missing.Available)
	assert.Contains(t, missing.Error, "404")
}
