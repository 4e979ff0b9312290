// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Message roles understood by every provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64

	// Tools the model may call. ToolChoice, when set, forces a call to that tool.
	Tools      []Tool
	ToolChoice string
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a function the model can call with structured input.
type Tool struct {
	Name        string
	Description string
	InputSchema ToolSchema
}

// ToolSchema is the JSON Schema object describing a tool's input.
type ToolSchema struct {
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// ContentBlock is one block of model output: a TextBlock or a ToolUseBlock.
type ContentBlock interface {
	contentBlock()
}

// TextBlock is freeform model text.
type TextBlock struct {
	Text string
}

// ToolUseBlock is a structured tool call.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func (TextBlock) contentBlock()    {}
func (ToolUseBlock) contentBlock() {}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    []ContentBlock
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Text concatenates every text block in the response.
func (r *CompletionResponse) Text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if b, ok := block.(TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}
