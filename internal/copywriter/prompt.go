// Package copywriter turns contact, persona and history into prompts, and model
// output into drafts and continue/stop decisions.
package copywriter

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/prospecting-platform/internal/llm"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
)

const (
	draftPreamble = "You are a professional sales copywriter. Write concise, natural prospection messages."
	draftClosing  = "Write a short, personalized message. Be direct and professional, not pushy."

	openingInstruction  = "Write the initial prospection message."
	followUpInstruction = "Write a follow-up reply to continue the conversation."

	analysisOpening = "This is a new conversation. Analyze and write the initial prospection message."
	analysisHeader  = "Analyze this conversation and determine next steps:"
)

const analysisPreamble = `You are a professional sales copywriter analyzing a prospection conversation.

## Your Task
1. Decide whether the conversation should continue or stop.
2. Write the next message to send in either case.

## Stop Criteria
Stop the conversation when one of these applies:
- positive_outcome: the contact shows clear interest, asks for a meeting or a demo. Write a closing message that proposes concrete next steps.
- unresponsive: the last 3 or more consecutive messages are from the salesperson with no reply from the contact. Write a polite final follow-up.
- negative_outcome: the contact explicitly declines or asks not to be contacted again. Write a gracious closing message.

## Continue Criteria
Continue in every other case, including when the contact is engaged but undecided. Replies such as "maybe later" are a judgment call.

## Important
ALWAYS provide draftMessage, even when the conversation stops.`

const analysisClosing = "Use the " + AnalysisToolName + " tool to return your decision and the message."

// BuildDraftSystemPrompt builds the system prompt for a plain draft.
// Optional sections are omitted when their source is empty.
func BuildDraftSystemPrompt(req model.DraftRequest) string {
	var sb strings.Builder
	sb.WriteString(draftPreamble)
	writeContextSections(&sb, req)
	sb.WriteString("\n\n")
	sb.WriteString(draftClosing)
	return sb.String()
}

// BuildAnalysisSystemPrompt builds the system prompt for the analyzer.
func BuildAnalysisSystemPrompt(req model.DraftRequest) string {
	var sb strings.Builder
	sb.WriteString(analysisPreamble)
	writeContextSections(&sb, req)
	sb.WriteString("\n\n")
	sb.WriteString(analysisClosing)
	return sb.String()
}

func writeContextSections(sb *strings.Builder, req model.DraftRequest) {
	contact := req.ContactInfo
	ai := req.UserAiContext

	sb.WriteString("\n\n## Contact Information\n")
	fmt.Fprintf(sb, "Name: %s", strings.TrimSpace(contact.FirstName+" "+contact.LastName))
	if contact.JobTitle != "" {
		fmt.Fprintf(sb, "\nJob title: %s", contact.JobTitle)
	}
	if contact.Company != "" {
		fmt.Fprintf(sb, "\nCompany: %s", contact.Company)
	}

	if ai.CompanyKnowledge != "" {
		sb.WriteString("\n\n## About the User's Company and Product\n")
		sb.WriteString(ai.CompanyKnowledge)
	}

	if req.SellingContext != "" {
		sb.WriteString("\n\n## Selling Context\n")
		sb.WriteString(req.SellingContext)
	}

	if ai.ToneOfVoice != "" {
		sb.WriteString("\n\n## Writing Style\n")
		fmt.Fprintf(sb, "Follow this tone: %s", ai.ToneOfVoice)
	}

	if len(ai.ExampleMessages) > 0 {
		sb.WriteString("\n\n## Example Messages (Use these as style reference)")
		for i, example := range ai.ExampleMessages {
			fmt.Fprintf(sb, "\nExample %d: %s", i+1, example)
		}
	}

	if ai.Signature != "" {
		sb.WriteString("\n\n## Signature\nEnd the message with this signature:\n")
		sb.WriteString(ai.Signature)
	}
}

// BuildDraftMessages maps history to chat turns. Prospect messages become
// assistant turns and contact messages become user turns.
func BuildDraftMessages(history []model.Message) []llm.ChatMessage {
	if len(history) == 0 {
		return []llm.ChatMessage{{Role: llm.RoleUser, Content: openingInstruction}}
	}

	messages := make([]llm.ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Role == model.RoleProspect {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: msg.Content})
	}
	return append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: followUpInstruction})
}

// BuildAnalysisMessages flattens history into a single user turn.
func BuildAnalysisMessages(history []model.Message) []llm.ChatMessage {
	if len(history) == 0 {
		return []llm.ChatMessage{{Role: llm.RoleUser, Content: analysisOpening}}
	}

	lines := make([]string, len(history))
	for i, msg := range history {
		speaker := "Contact"
		if msg.Role == model.RoleProspect {
			speaker = "Salesperson (you)"
		}
		lines[i] = speaker + ": " + msg.Content
	}

	return []llm.ChatMessage{{
		Role:    llm.RoleUser,
		Content: analysisHeader + "\n\n" + strings.Join(lines, "\n\n"),
	}}
}
