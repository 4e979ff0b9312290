package copywriter

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/capitalize-ai/prospecting-platform/internal/llm"
)

// AnalysisToolName is the tool the analyzer forces the model to call.
const AnalysisToolName = "analyze_conversation"

const analysisToolDescription = "Return the conversation decision and the next message to send."

// analysisDecision documents the tool input. Fields without omitempty are required.
type analysisDecision struct {
	ConversationStatus string `json:"conversationStatus" jsonschema:"enum=continue,enum=stop,description=Whether to keep prospecting or stop the conversation"`
	StopReason         string `json:"stopReason,omitempty" jsonschema:"enum=positive_outcome,enum=unresponsive,enum=negative_outcome,description=Why the conversation stops. Only set when conversationStatus is stop"`
	DraftMessage       string `json:"draftMessage" jsonschema:"description=The next message to send to the contact. Always required"`
}

var (
	analysisToolOnce sync.Once
	analysisTool     llm.Tool
	analysisToolErr  error
)

// AnalysisTool returns the tool definition, reflecting its schema once.
func AnalysisTool() (llm.Tool, error) {
	analysisToolOnce.Do(func() {
		schema, err := reflectToolSchema(&analysisDecision{})
		if err != nil {
			analysisToolErr = err
			return
		}
		analysisTool = llm.Tool{
			Name:        AnalysisToolName,
			Description: analysisToolDescription,
			InputSchema: schema,
		}
	})
	return analysisTool, analysisToolErr
}

func reflectToolSchema(v any) (llm.ToolSchema, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	data, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return llm.ToolSchema{}, fmt.Errorf("failed to marshal tool schema: %w", err)
	}

	var schema llm.ToolSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return llm.ToolSchema{}, fmt.Errorf("failed to decode tool schema: %w", err)
	}
	return schema, nil
}
