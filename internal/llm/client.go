// Package llm is the boundary to the language model provider. Callers build a
// provider-neutral Request; backends translate it to their wire format.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionDefinition describes one callable function. Parameters is a JSON
// Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type Request struct {
	System      string
	Messages    []Message
	Functions   []FunctionDefinition
	Temperature float64
	// RequireFunction forces the model to call the named function.
	RequireFunction string
}

// FunctionCall is a call emitted by the model. Arguments is the raw JSON text
// the model produced and has not been validated.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Response struct {
	Content string
	Calls   []FunctionCall
}

// Client sends one request and waits for the full response.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ErrNoFunctionCall is returned by CallFunction when the model answered
// without calling the requested function.
var ErrNoFunctionCall = errors.New("model did not return the requested function call")

// CallFunction asks the model to call fn and decodes the arguments of that
// call into out.
func CallFunction(ctx context.Context, c Client, req Request, fn string, out any) error {
	req.RequireFunction = fn
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	for _, call := range resp.Calls {
		if call.Name != fn {
			continue
		}
		if err := json.Unmarshal([]byte(call.Arguments), out); err != nil {
			return fmt.Errorf("decode %s arguments: %w", fn, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNoFunctionCall, fn)
}

// Text sends a single user prompt and returns the trimmed text answer.
func Text(ctx context.Context, c Client, prompt string, temperature float64) (string, error) {
	resp, err := c.Complete(ctx, Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
