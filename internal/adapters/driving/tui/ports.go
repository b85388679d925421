// Package tui provides an interactive terminal user interface for docchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// DefaultSessionID is used when no session is configured.
const DefaultSessionID = "default"

// Ports aggregates the driving ports required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat runs the conversation. Required.
	Chat driving.ChatService

	// Knowledge exposes the knowledge base. Optional; hides the knowledge view.
	Knowledge driving.KnowledgeService

	// Sessions hands out the ingestion state machine. Optional together
	// with Uploads; hides the files view.
	Sessions driving.SessionRegistry

	// Uploads supplies the live upload set on every tick.
	Uploads driven.UploadSource

	// SessionID scopes conversation and ingestion state.
	SessionID string

	// TickInterval is the delay between ingestion ticks.
	TickInterval time.Duration
}

// Validate ensures the required ports are set and fills defaults.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if (p.Sessions == nil) != (p.Uploads == nil) {
		return ErrIncompleteIngestion
	}
	if p.SessionID == "" {
		p.SessionID = DefaultSessionID
	}
	if p.TickInterval <= 0 {
		p.TickInterval = domain.DefaultTickInterval
	}
	return nil
}

// hasIngestion reports whether the files view can run.
func (p *Ports) hasIngestion() bool {
	return p.Sessions != nil && p.Uploads != nil
}
