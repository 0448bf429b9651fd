package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/llm"
)

func TestOpenAIClient_SendsToolsAndParsesCalls(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"delete_card","arguments":"{\"id\":\"2\"}"}}
		]}}]}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(srv.URL+"/v1/", "test-key", "gpt-test", 5*time.Second)
	resp, err := client.Complete(context.Background(), llm.Request{
		System:      "be terse",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "remove card 2"}},
		Functions:   []llm.FunctionDefinition{{Name: "delete_card", Parameters: map[string]any{"type": "object"}}},
		Temperature: 0,
	})
	require.NoError(t, err)

	require.Len(t, resp.Calls, 1)
	assert.Equal(t, "delete_card", resp.Calls[0].Name)
	assert.JSONEq(t, `{"id":"2"}`, resp.Calls[0].Arguments)

	assert.Equal(t, "gpt-test", captured["model"])
	assert.Equal(t, 0.0, captured["temperature"])
	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	tools := captured["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "function", tools[0].(map[string]any)["type"])
	assert.Nil(t, captured["tool_choice"])
}

func TestOpenAIClient_LegacyFunctionCallAndRequiredFunction(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","function_call":{"name":"quiz_batch","arguments":"{\"questions\":[]}"}}}]}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(srv.URL, "k", "m", time.Second)
	var out struct {
		Questions []any `json:"questions"`
	}
	err := llm.CallFunction(context.Background(), client, llm.Request{
		Functions: []llm.FunctionDefinition{{Name: "quiz_batch"}},
	}, "quiz_batch", &out)
	require.NoError(t, err)
	assert.NotNil(t, out.Questions)

	choice := captured["tool_choice"].(map[string]any)
	assert.Equal(t, "quiz_batch", choice["function"].(map[string]any)["name"])
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached"}}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(srv.URL, "k", "m", time.Second)
	_, err := client.Complete(context.Background(), llm.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limit reached")
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(srv.URL, "k", "m", time.Second)
	_, err := client.Complete(context.Background(), llm.Request{})
	assert.ErrorContains(t, err, "empty choices")
}
