package service

import "errors"

var (
	// ErrContactNotFound is returned when a conversation's contact is missing
	// or belongs to another user.
	ErrContactNotFound = errors.New("contact not found")

	// ErrConversationStopped is returned when a draft is requested for a
	// conversation that has already stopped.
	ErrConversationStopped = errors.New("conversation is stopped")
)
