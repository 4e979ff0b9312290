package model

// ContactInfo is the prospect identity embedded in prompts.
type ContactInfo struct {
	FirstName string
	LastName  string
	JobTitle  string
	Company   string
}

// UserAiContext is the persona context embedded in prompts.
type UserAiContext struct {
	CompanyKnowledge string
	ToneOfVoice      string
	ExampleMessages  []string
	Signature        string
}

// UserAiContextFrom builds the prompt context from stored preferences.
// The tone always resolves, falling back to the default.
func UserAiContextFrom(prefs *AiPreferences) UserAiContext {
	ctx := UserAiContext{ToneOfVoice: EffectiveToneOfVoice(prefs)}
	if prefs == nil {
		return ctx
	}
	if prefs.CompanyKnowledge != nil {
		ctx.CompanyKnowledge = *prefs.CompanyKnowledge
	}
	if prefs.Signature != nil {
		ctx.Signature = *prefs.Signature
	}
	ctx.ExampleMessages = append([]string(nil), prefs.ExampleMessages...)
	return ctx
}

// DraftRequest is the input to the drafter and analyzer.
type DraftRequest struct {
	ContactInfo         ContactInfo
	UserAiContext       UserAiContext
	ConversationHistory []Message
	SellingContext      string
}

// DraftResult is the output of a plain draft.
type DraftResult struct {
	Content string
	Usage   TokenUsage
}

// ConversationAnalysis is the analyzer's decision for the next turn.
type ConversationAnalysis struct {
	Status       ConversationStatus
	StopReason   *StopReason
	DraftContent string
}

// AnalysisAndDraftResult is the output of the analyzer.
type AnalysisAndDraftResult struct {
	Analysis ConversationAnalysis
	Usage    TokenUsage
}

// DraftOutcome is returned by the orchestrator after producing a turn.
type DraftOutcome struct {
	Content       string      `json:"content"`
	Stopped       bool        `json:"stopped"`
	StoppedReason *StopReason `json:"stoppedReason"`
}

// DraftPreview is an unsaved candidate message.
type DraftPreview struct {
	Content string `json:"content"`
}
