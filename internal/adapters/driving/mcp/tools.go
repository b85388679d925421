package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation to continue (default mcp)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Degraded bool     `json:"degraded"`
}

// ListFilesInput is the input schema for the list_files tool.
type ListFilesInput struct{}

// ListFilesOutput is the output schema for the list_files tool.
type ListFilesOutput struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// FileInfoInput is the input schema for the file_info tool.
type FileInfoInput struct {
	Filename string `json:"filename" jsonschema:"the indexed filename to describe"`
}

// RemoveFileOutput is the output schema for the remove_file tool.
type RemoveFileOutput struct {
	Filename string `json:"filename"`
	Verified bool   `json:"verified"`
}

// StatsInput is the input schema for the stats tool.
type StatsInput struct{}

// SessionInput names a session.
type SessionInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session to inspect (default mcp)"`
}

// ClearHistoryOutput is the output schema for the clear_history tool.
type ClearHistoryOutput struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_history",
		Description: "Forget the conversation history of a session",
	}, s.handleClearHistory)

	if s.ports.Knowledge != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_files",
			Description: "List the filenames in the knowledge base",
		}, s.handleListFiles)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "file_info",
			Description: "Describe one indexed file",
		}, s.handleFileInfo)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "remove_file",
			Description: "Remove an indexed file, cancelling active ingestion first",
		}, s.handleRemoveFile)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "stats",
			Description: "Count the chunks and files in the knowledge base",
		}, s.handleStats)
	}

	if s.ports.Sessions != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingestion_status",
			Description: "Report the ingestion progress of a session",
		}, s.handleIngestionStatus)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	answer, err := s.ports.Chat.Ask(ctx, sessionOrDefault(input.SessionID), question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	return nil, AskOutput{
		Answer:   answer.Text,
		Sources:  sources,
		Degraded: answer.Degraded,
	}, nil
}

// handleClearHistory handles the clear_history tool invocation.
func (s *Server) handleClearHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, ClearHistoryOutput, error) {
	id := sessionOrDefault(input.SessionID)
	if err := s.ports.Chat.Clear(ctx, id); err != nil {
		return nil, ClearHistoryOutput{}, err
	}
	return nil, ClearHistoryOutput{SessionID: id, Cleared: true}, nil
}

// handleListFiles handles the list_files tool invocation.
func (s *Server) handleListFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	files, err := s.ports.Knowledge.ListFiles(ctx)
	if err != nil {
		return nil, ListFilesOutput{}, err
	}
	if files == nil {
		files = []string{}
	}
	return nil, ListFilesOutput{Files: files, Count: len(files)}, nil
}

// handleFileInfo handles the file_info tool invocation.
func (s *Server) handleFileInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FileInfoInput,
) (*mcp.CallToolResult, domain.FileInfo, error) {
	if input.Filename == "" {
		return nil, domain.FileInfo{}, errors.New("filename is required")
	}
	info, err := s.ports.Knowledge.FileInfo(ctx, input.Filename)
	if err != nil {
		return nil, domain.FileInfo{}, err
	}
	return nil, *info, nil
}

// handleRemoveFile handles the remove_file tool invocation.
func (s *Server) handleRemoveFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FileInfoInput,
) (*mcp.CallToolResult, RemoveFileOutput, error) {
	if input.Filename == "" {
		return nil, RemoveFileOutput{}, errors.New("filename is required")
	}
	verified, err := s.ports.Knowledge.RemoveFile(ctx, input.Filename)
	if err != nil {
		return nil, RemoveFileOutput{}, err
	}
	return nil, RemoveFileOutput{Filename: input.Filename, Verified: verified}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.KnowledgeStats, error) {
	stats, err := s.ports.Knowledge.Stats(ctx)
	if err != nil {
		return nil, domain.KnowledgeStats{}, err
	}
	return nil, stats, nil
}

// handleIngestionStatus handles the ingestion_status tool invocation.
func (s *Server) handleIngestionStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, domain.ProcessingState, error) {
	state, err := s.ports.Sessions.Ingestion(sessionOrDefault(input.SessionID)).State(ctx)
	if err != nil {
		return nil, domain.ProcessingState{}, err
	}
	return nil, state, nil
}
