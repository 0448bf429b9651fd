package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/llm"
)

// MockLLMClient is a mock implementation of llm.Client
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// CallResponse builds a response holding a single function call.
func CallResponse(name, arguments string) *llm.Response {
	return &llm.Response{Calls: []llm.FunctionCall{{Name: name, Arguments: arguments}}}
}

// TextResponse builds a plain text response.
func TextResponse(text string) *llm.Response {
	return &llm.Response{Content: text}
}
