package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type askRequest struct {
	Question string `json:"question"`
}

type historyResponse struct {
	Messages []domain.Message           `json:"messages"`
	Summary  domain.ConversationSummary `json:"summary"`
}

// handleCreateSession issues a fresh session ID. Sessions need no
// registration; any ID works, this one is merely unique.
func (s *Server) handleCreateSession(c echo.Context) error {
	return c.JSON(http.StatusCreated, sessionResponse{SessionID: uuid.NewString()})
}

func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return NewBadRequestError("question is required", nil)
	}

	answer, err := s.ports.Chat.Ask(c.Request().Context(), c.Param("sessionId"), question)
	if err != nil {
		return fromDomain("failed to record conversation", err)
	}
	return c.JSON(http.StatusOK, answer)
}

func (s *Server) handleHistory(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("sessionId")

	messages, err := s.ports.Chat.History(ctx, sessionID)
	if err != nil {
		return fromDomain("failed to load history", err)
	}
	summary, err := s.ports.Chat.Summary(ctx, sessionID)
	if err != nil {
		return fromDomain("failed to summarise history", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, historyResponse{Messages: messages, Summary: summary})
}

func (s *Server) handleClearHistory(c echo.Context) error {
	if err := s.ports.Chat.Clear(c.Request().Context(), c.Param("sessionId")); err != nil {
		return fromDomain("failed to clear history", err)
	}
	return c.NoContent(http.StatusNoContent)
}
