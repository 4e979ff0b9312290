package copywriter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/llm"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
	"github.com/capitalize-ai/prospecting-platform/pkg/metrics"
)

var (
	// ErrNoDecision means the response carried no analyze_conversation tool call.
	ErrNoDecision = errors.New("model response contained no conversation decision")
	// ErrMissingDraftMessage means the decision omitted draftMessage.
	ErrMissingDraftMessage = errors.New("conversation decision is missing draftMessage")
	// ErrInvalidDecision means the decision carried an unknown status or stop reason.
	ErrInvalidDecision = errors.New("conversation decision is invalid")
)

// Options configures model calls.
type Options struct {
	Model     string
	MaxTokens int
	// Timeout bounds each model call. Zero leaves the caller's deadline in charge.
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = llm.DefaultAnthropicModel
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 1024
	}
	return o
}

func (o Options) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return ctx, func() {}
}

func usageFrom(resp *llm.CompletionResponse, fallbackModel string) model.TokenUsage {
	m := resp.Model
	if m == "" {
		m = fallbackModel
	}
	return model.TokenUsage{
		InputTokens:  int64(resp.TokensIn),
		OutputTokens: int64(resp.TokensOut),
		Model:        m,
	}
}

// Drafter produces a freeform message.
type Drafter struct {
	client llm.Client
	opts   Options
	logger *logger.Logger
}

// NewDrafter creates a new drafter.
func NewDrafter(client llm.Client, opts Options, log *logger.Logger) *Drafter {
	return &Drafter{client: client, opts: opts.withDefaults(), logger: log}
}

// GenerateDraft writes the next message. A response without text yields an empty draft.
// Model errors are returned unchanged.
func (d *Drafter) GenerateDraft(ctx context.Context, req model.DraftRequest) (*model.DraftResult, error) {
	ctx, cancel := d.opts.callContext(ctx)
	defer cancel()

	resp, err := d.client.Complete(ctx, &llm.CompletionRequest{
		Model:     d.opts.Model,
		System:    BuildDraftSystemPrompt(req),
		Messages:  BuildDraftMessages(req.ConversationHistory),
		MaxTokens: d.opts.MaxTokens,
	})
	if err != nil {
		metrics.RecordLLMCall(d.opts.Model, "draft", "error", 0, 0, 0)
		return nil, err
	}

	usage := usageFrom(resp, d.opts.Model)
	metrics.RecordLLMCall(usage.Model, "draft", "success", float64(resp.LatencyMs)/1000, resp.TokensIn, resp.TokensOut)

	return &model.DraftResult{
		Content: resp.Text(),
		Usage:   usage,
	}, nil
}

// Analyzer decides continue or stop and drafts the next message in one call.
type Analyzer struct {
	client llm.Client
	opts   Options
	logger *logger.Logger
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(client llm.Client, opts Options, log *logger.Logger) *Analyzer {
	return &Analyzer{client: client, opts: opts.withDefaults(), logger: log}
}

// AnalyzeAndDraft forces an analyze_conversation tool call and decodes it.
func (a *Analyzer) AnalyzeAndDraft(ctx context.Context, req model.DraftRequest) (*model.AnalysisAndDraftResult, error) {
	tool, err := AnalysisTool()
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.opts.callContext(ctx)
	defer cancel()

	resp, err := a.client.Complete(ctx, &llm.CompletionRequest{
		Model:      a.opts.Model,
		System:     BuildAnalysisSystemPrompt(req),
		Messages:   BuildAnalysisMessages(req.ConversationHistory),
		MaxTokens:  a.opts.MaxTokens,
		Tools:      []llm.Tool{tool},
		ToolChoice: tool.Name,
	})
	if err != nil {
		metrics.RecordLLMCall(a.opts.Model, "analyze", "error", 0, 0, 0)
		return nil, err
	}

	usage := usageFrom(resp, a.opts.Model)
	metrics.RecordLLMCall(usage.Model, "analyze", "success", float64(resp.LatencyMs)/1000, resp.TokensIn, resp.TokensOut)

	block, err := findDecision(resp.Content)
	if err != nil {
		return nil, err
	}

	analysis, err := DecodeDecision(block.Input)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("conversation analyzed",
		zap.String("status", string(analysis.Status)),
		zap.Int64("input_tokens", usage.InputTokens),
		zap.Int64("output_tokens", usage.OutputTokens),
	)

	return &model.AnalysisAndDraftResult{Analysis: *analysis, Usage: usage}, nil
}

func findDecision(content []llm.ContentBlock) (llm.ToolUseBlock, error) {
	for _, block := range content {
		switch b := block.(type) {
		case llm.ToolUseBlock:
			if b.Name == AnalysisToolName {
				return b, nil
			}
		case llm.TextBlock:
			// text alongside the tool call carries no decision
		default:
			return llm.ToolUseBlock{}, fmt.Errorf("%w: unexpected content block %T", ErrNoDecision, b)
		}
	}
	return llm.ToolUseBlock{}, ErrNoDecision
}

type decisionPayload struct {
	ConversationStatus *string `json:"conversationStatus"`
	StopReason         *string `json:"stopReason"`
	DraftMessage       *string `json:"draftMessage"`
}

// DecodeDecision validates tool input. A continue decision always drops the stop reason.
func DecodeDecision(input json.RawMessage) (*model.ConversationAnalysis, error) {
	var p decisionPayload
	if err := json.Unmarshal(input, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}

	if p.ConversationStatus == nil {
		return nil, fmt.Errorf("%w: missing conversationStatus", ErrInvalidDecision)
	}
	status := model.ConversationStatus(*p.ConversationStatus)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown conversationStatus %q", ErrInvalidDecision, status)
	}

	if p.DraftMessage == nil {
		return nil, ErrMissingDraftMessage
	}

	analysis := &model.ConversationAnalysis{
		Status:       status,
		DraftContent: *p.DraftMessage,
	}

	// An empty stopReason is treated as absent.
	if status == model.StatusStop && p.StopReason != nil && *p.StopReason != "" {
		reason := model.StopReason(*p.StopReason)
		if !reason.Valid() {
			return nil, fmt.Errorf("%w: unknown stopReason %q", ErrInvalidDecision, reason)
		}
		analysis.StopReason = &reason
	}

	return analysis, nil
}
