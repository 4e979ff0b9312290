// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/capitalize-ai/prospecting-platform/internal/llm"
)

// ErrNoResponse is returned when the script has run out.
var ErrNoResponse = errors.New("llmtest: no scripted response")

// Client replays scripted responses in order and records every request.
type Client struct {
	mu        sync.Mutex
	responses []*llm.CompletionResponse
	errs      []error
	requests  []*llm.CompletionRequest
}

var _ llm.Client = (*Client)(nil)

// New returns a client that replays responses in order.
func New(responses ...*llm.CompletionResponse) *Client {
	return &Client{responses: responses}
}

// FailWith queues an error to be returned before any remaining response.
func (c *Client) FailWith(err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	return c
}

// Complete returns the next scripted error or response.
func (c *Client) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)

	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.responses) == 0 {
		return nil, ErrNoResponse
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return "llmtest" }

// Models returns the scripted model list.
func (c *Client) Models() []string { return []string{"test-model"} }

// Calls returns how many times Complete was invoked.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Requests returns every request received so far.
func (c *Client) Requests() []*llm.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*llm.CompletionRequest(nil), c.requests...)
}

// Text builds a text-only response.
func Text(text string, tokensIn, tokensOut int) *llm.CompletionResponse {
	return &llm.CompletionResponse{
		Content:   []llm.ContentBlock{llm.TextBlock{Text: text}},
		Model:     "test-model",
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
	}
}

// ToolCall builds a response carrying one tool call with input marshalled from v.
func ToolCall(name string, v any, tokensIn, tokensOut int) *llm.CompletionResponse {
	input, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &llm.CompletionResponse{
		Content:   []llm.ContentBlock{llm.ToolUseBlock{ID: "toolu_test", Name: name, Input: input}},
		Model:     "test-model",
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
	}
}

// Decision builds an analyze_conversation tool call response.
func Decision(status, stopReason, draft string) *llm.CompletionResponse {
	input := map[string]any{"conversationStatus": status, "draftMessage": draft}
	if stopReason != "" {
		input["stopReason"] = stopReason
	}
	return ToolCall("analyze_conversation", input, 200, 50)
}
