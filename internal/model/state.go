package model

// ConversationState is the lifecycle state of a conversation.
type ConversationState string

const (
	StateActive  ConversationState = "active"
	StateStopped ConversationState = "stopped"
)

// IsTerminal reports whether no further transition is possible.
func (s ConversationState) IsTerminal() bool {
	return s == StateStopped
}

// CanTransitionTo reports whether moving from s to next is allowed.
// The only transition is active -> stopped.
func (s ConversationState) CanTransitionTo(next ConversationState) bool {
	return s == StateActive && next == StateStopped
}

// StopReason is why automated outreach ended.
type StopReason string

const (
	StopReasonPositiveOutcome StopReason = "positive_outcome"
	StopReasonUnresponsive    StopReason = "unresponsive"
	StopReasonNegativeOutcome StopReason = "negative_outcome"
)

// StopReasons lists every valid stop reason.
var StopReasons = []StopReason{
	StopReasonPositiveOutcome,
	StopReasonUnresponsive,
	StopReasonNegativeOutcome,
}

// Valid reports whether r is a known stop reason.
func (r StopReason) Valid() bool {
	for _, known := range StopReasons {
		if r == known {
			return true
		}
	}
	return false
}

// ConversationStatus is the analyzer's verdict for the next turn.
type ConversationStatus string

const (
	StatusContinue ConversationStatus = "continue"
	StatusStop     ConversationStatus = "stop"
)

// Valid reports whether s is a known status.
func (s ConversationStatus) Valid() bool {
	return s == StatusContinue || s == StatusStop
}
