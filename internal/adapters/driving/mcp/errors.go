// Package mcp provides an MCP (Model Context Protocol) server adapter for docchat.
// It lets AI assistants ask grounded questions and inspect the knowledge base.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
