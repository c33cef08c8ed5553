package conversation

import "errors"

var (
	// ErrNoChatModel is returned by Reply when no chat model is configured.
	ErrNoChatModel = errors.New("no chat model configured")

	// ErrEmptyReply is returned when the chat model answers with no content.
	ErrEmptyReply = errors.New("chat model returned an empty reply")
)
