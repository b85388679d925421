package mcp

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions within a session.
	Chat driving.ChatService

	// Knowledge exposes the indexed files.
	Knowledge driving.KnowledgeService

	// Sessions reports ingestion progress per session.
	Sessions driving.SessionRegistry
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	// Knowledge and Sessions are optional; their tools are not registered without them.
	return nil
}
