package core

import "errors"

var (
	// ErrUnknownConversation is returned when an operation references a
	// conversation identifier the session store has no record of.
	ErrUnknownConversation = errors.New("unknown conversation")

	// ErrConversationExists is returned by Create when the identifier is
	// already in use.
	ErrConversationExists = errors.New("conversation already exists")
)
