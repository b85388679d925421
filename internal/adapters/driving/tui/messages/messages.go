// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question and answer conversation.
	ViewChat
	// ViewFiles shows the selected uploads and ingestion progress.
	ViewFiles
	// ViewKnowledge lists what the knowledge base holds.
	ViewKnowledge
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewFiles:
		return "files"
	case ViewKnowledge:
		return "knowledge"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// HistoryLoaded carries the session's conversation.
type HistoryLoaded struct {
	Messages []domain.Message
	Err      error
}

// AnswerReceived carries the answer to a submitted question.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// HistoryCleared signals the session's conversation was removed.
type HistoryCleared struct {
	Err error
}

// UploadsLoaded carries the live upload set and the ingestion state.
type UploadsLoaded struct {
	Names []string
	State domain.ProcessingState
	Err   error
}

// IngestionStarted carries the outcome of a start request.
type IngestionStarted struct {
	State domain.ProcessingState
	Err   error
}

// IngestionTick asks the files view to advance ingestion by one file.
type IngestionTick struct{}

// IngestionTicked carries the result of one ingestion tick.
type IngestionTicked struct {
	Result driving.TickResult
	// Removed lists queued files dropped because they left the upload set.
	Removed []string
	Err     error
}

// IngestionCancelled carries the outcome of a cancel request.
type IngestionCancelled struct {
	Cancelled bool
	State     domain.ProcessingState
	Err       error
}

// StatsLoaded carries the knowledge base statistics.
type StatsLoaded struct {
	Stats domain.KnowledgeStats
	Err   error
}

// FileRemoved signals an indexed file was removed.
type FileRemoved struct {
	Filename string
	Verified bool
	Err      error
}

// KnowledgeCleared signals the knowledge base was emptied.
type KnowledgeCleared struct {
	Verified bool
	Err      error
}
