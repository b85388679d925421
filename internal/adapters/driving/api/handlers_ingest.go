package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

type uploadsResponse struct {
	Files []string `json:"files"`
}

type tickResponse struct {
	Outcome driving.TickOutcome    `json:"outcome"`
	Done    bool                   `json:"done"`
	Removed []string               `json:"removed,omitempty"`
	File    *domain.FileResult     `json:"file,omitempty"`
	State   domain.ProcessingState `json:"state"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

func (s *Server) handleListUploads(c echo.Context) error {
	names := s.ports.Uploads.Source(c.Param("sessionId")).Names()
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, uploadsResponse{Files: names})
}

// handleUpload adds every "file" part of a multipart form to the session's
// upload set. Unsupported types reject the whole request.
func (s *Server) handleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form", err)
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		return NewBadRequestError("no file provided", nil)
	}

	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			return err
		}
		uploads = append(uploads, u)
	}

	source := s.ports.Uploads.Source(c.Param("sessionId"))
	for _, u := range uploads {
		source.Add(u)
	}
	return c.JSON(http.StatusCreated, uploadsResponse{Files: source.Names()})
}

func readUpload(fh *multipart.FileHeader) (domain.Upload, error) {
	name := filepath.Base(fh.Filename)
	if !domain.IsSupportedExtension(filepath.Ext(name)) {
		return domain.Upload{}, NewBadRequestError(
			fmt.Sprintf("unsupported file type: %s", name), domain.ErrUnsupportedType)
	}

	f, err := fh.Open()
	if err != nil {
		return domain.Upload{}, NewBadRequestError("cannot open upload", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.Upload{}, NewBadRequestError("cannot read upload", err)
	}
	return domain.NewUpload(name, content), nil
}

func (s *Server) handleRemoveUpload(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return NewBadRequestError("invalid file name", err)
	}
	if !s.ports.Uploads.Source(c.Param("sessionId")).Remove(name) {
		return NewNotFoundError("upload", name)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleIngestionState(c echo.Context) error {
	state, err := s.ports.Sessions.Ingestion(c.Param("sessionId")).State(c.Request().Context())
	if err != nil {
		return fromDomain("failed to load state", err)
	}
	return c.JSON(http.StatusOK, state)
}

// handleStartIngestion queues the session's uploads and runs ingestion in
// the background until it finishes, is cancelled or the server closes.
func (s *Server) handleStartIngestion(c echo.Context) error {
	sessionID := c.Param("sessionId")
	source := s.ports.Uploads.Source(sessionID)
	ingestion := s.ports.Sessions.Ingestion(sessionID)

	uploads, err := source.Uploads(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list uploads", err)
	}
	state, err := ingestion.Start(c.Request().Context(), uploads)
	if err != nil {
		return fromDomain("failed to start ingestion", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	current := &run{cancel: cancel}
	s.mu.Lock()
	if prev, ok := s.runs[sessionID]; ok {
		prev.cancel()
	}
	s.runs[sessionID] = current
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.finishRun(sessionID, current)

		final, err := s.ports.Runner.Run(ctx, ingestion, source, nil)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Ingestion for session %s stopped: %v", sessionID, err)
		} else {
			logger.Info("Ingestion for session %s finished: %s", sessionID, final.Message)
		}
	}()

	return c.JSON(http.StatusAccepted, state)
}

// finishRun releases a background run. A newer run of the same session
// keeps its entry.
func (s *Server) finishRun(sessionID string, r *run) {
	r.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs[sessionID] == r {
		delete(s.runs, sessionID)
	}
}

// handleTickIngestion advances the session by at most one file, for hosts
// that drive the cadence themselves instead of the background runner.
func (s *Server) handleTickIngestion(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("sessionId")
	ingestion := s.ports.Sessions.Ingestion(sessionID)

	live, err := s.ports.Uploads.Source(sessionID).Uploads(ctx)
	if err != nil {
		return NewInternalError("failed to list uploads", err)
	}
	removed, err := ingestion.UpdateFiles(ctx, live)
	if err != nil {
		return fromDomain("failed to reconcile uploads", err)
	}
	res, err := ingestion.ProcessNext(ctx, live)
	if err != nil {
		return fromDomain("failed to process file", err)
	}

	return c.JSON(http.StatusOK, tickResponse{
		Outcome: res.Outcome,
		Done:    res.Done(),
		Removed: removed,
		File:    res.File,
		State:   res.State,
	})
}

func (s *Server) handleCancelIngestion(c echo.Context) error {
	sessionID := c.Param("sessionId")
	cancelled, err := s.ports.Sessions.Ingestion(sessionID).Cancel(c.Request().Context(), domain.CancelReasonDefault)
	if err != nil {
		return fromDomain("failed to cancel ingestion", err)
	}
	return c.JSON(http.StatusOK, cancelResponse{Cancelled: cancelled})
}

// handleResetIngestion returns a finished run to idle.
func (s *Server) handleResetIngestion(c echo.Context) error {
	ingestion := s.ports.Sessions.Ingestion(c.Param("sessionId"))
	if err := ingestion.Reset(c.Request().Context()); err != nil {
		return fromDomain("failed to reset ingestion", err)
	}
	state, err := ingestion.State(c.Request().Context())
	if err != nil {
		return fromDomain("failed to load state", err)
	}
	return c.JSON(http.StatusOK, state)
}
