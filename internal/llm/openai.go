package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/logger"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	log        *logger.Logger
}

func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		log:        logger.Default().WithPrefix("openai"),
	}
}

type openAITool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type openAIRequest struct {
	Model       string       `json:"model"`
	Messages    []Message    `json:"messages"`
	Tools       []openAITool `json:"tools,omitempty"`
	ToolChoice  any          `json:"tool_choice,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type openAIFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content      *string         `json:"content"`
			FunctionCall *openAIFunction `json:"function_call"`
			ToolCalls    []struct {
				ID       string         `json:"id"`
				Function openAIFunction `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	log := logger.FromContext(ctx).WithPrefix("openai")

	body := openAIRequest{
		Model:       c.model,
		Temperature: &req.Temperature,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, Message{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, req.Messages...)
	for _, fn := range req.Functions {
		body.Tools = append(body.Tools, openAITool{Type: "function", Function: fn})
	}
	if req.RequireFunction != "" {
		body.ToolChoice = map[string]any{
			"type":     "function",
			"function": map[string]string{"name": req.RequireFunction},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug("sending completion: model=%s messages=%d tools=%d", c.model, len(body.Messages), len(body.Tools))
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Error("completion request failed")
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		log.Warn("completion returned status %d: %s", resp.StatusCode, msg)
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	msg := parsed.Choices[0].Message
	out := &Response{}
	if msg.Content != nil {
		out.Content = *msg.Content
	}
	if msg.FunctionCall != nil {
		out.Calls = append(out.Calls, FunctionCall{Name: msg.FunctionCall.Name, Arguments: msg.FunctionCall.Arguments})
	}
	for _, tc := range msg.ToolCalls {
		out.Calls = append(out.Calls, FunctionCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}

	log.Debug("completion received in %v: calls=%d content_len=%d", time.Since(start), len(out.Calls), len(out.Content))
	return out, nil
}

var _ Client = (*OpenAIClient)(nil)
