package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

type anthropicRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string            `json:"role"`
		Content []json.RawMessage `json:"content"`
	} `json:"messages"`
}

func TestAnthropicClientGenerateReply(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-haiku-20240307",
			"content":[{"type":"text","text":"Turn east."}],"stop_reason":"end_turn",
			"usage":{"input_tokens":10,"output_tokens":3}}`))
	}))
	defer srv.Close()

	history := append([]engine.ChatMessage{}, sampleHistory...)
	history = append(history, engine.ChatMessage{Role: engine.RoleUser, Content: "Hello?"})

	client := NewAnthropicClient("key", srv.URL+"/v1", engine.ChatOptions{Model: "claude-3-haiku-20240307"})
	reply, err := client.GenerateReply(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "Turn east.", reply)
	assert.Equal(t, 200, got.MaxTokens)
	require.Len(t, got.System, 2)
	assert.Equal(t, "You are a staff member on the ISS.", got.System[0].Text)
	assert.Equal(t, "了解しました。", got.System[1].Text)

	// the greeting is part of the system prompt, both user turns merge
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Len(t, got.Messages[0].Content, 2)
}

func TestAnthropicClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient("key", srv.URL+"/v1", engine.ChatOptions{Model: "claude-3-haiku-20240307"})
	_, err := client.GenerateReply(context.Background(), sampleHistory)
	require.Error(t, err)

	var perr *engine.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "anthropic", perr.Provider)
	assert.Equal(t, http.StatusInternalServerError, perr.StatusCode)
}
