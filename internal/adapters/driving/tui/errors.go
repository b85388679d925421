package tui

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("tui: chat service is required")

// ErrIncompleteIngestion is returned when only one of the session registry
// and the upload source is provided.
var ErrIncompleteIngestion = errors.New("tui: sessions and uploads must be provided together")
