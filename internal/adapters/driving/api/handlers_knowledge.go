package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultInspectLimit = 10

type filesResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

type chunkResponse struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

type removeResponse struct {
	Verified bool `json:"verified"`
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.ports.Knowledge.Stats(c.Request().Context())
	if err != nil {
		return fromDomain("failed to read stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListFiles(c echo.Context) error {
	files, err := s.ports.Knowledge.ListFiles(c.Request().Context())
	if err != nil {
		return fromDomain("failed to list files", err)
	}
	if files == nil {
		files = []string{}
	}
	return c.JSON(http.StatusOK, filesResponse{Files: files, Count: len(files)})
}

func (s *Server) handleFileInfo(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return NewBadRequestError("invalid file name", err)
	}
	info, err := s.ports.Knowledge.FileInfo(c.Request().Context(), name)
	if err != nil {
		return fromDomain("failed to describe file", err)
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleRemoveFile(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return NewBadRequestError("invalid file name", err)
	}
	verified, err := s.ports.Knowledge.RemoveFile(c.Request().Context(), name)
	if err != nil {
		return fromDomain("failed to remove file", err)
	}
	return c.JSON(http.StatusOK, removeResponse{Verified: verified})
}

func (s *Server) handleInspect(c echo.Context) error {
	limit := defaultInspectLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewBadRequestError("limit must be a positive integer", err)
		}
		limit = n
	}

	chunks, err := s.ports.Knowledge.Inspect(c.Request().Context(), limit)
	if err != nil {
		return fromDomain("failed to inspect chunks", err)
	}
	out := make([]chunkResponse, len(chunks))
	for i, ch := range chunks {
		out[i] = chunkResponse{ID: ch.ID, Content: ch.Content, Metadata: ch.Metadata}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleClear(c echo.Context) error {
	verified, err := s.ports.Knowledge.Clear(c.Request().Context())
	if err != nil {
		return fromDomain("failed to clear knowledge base", err)
	}
	return c.JSON(http.StatusOK, removeResponse{Verified: verified})
}
