package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	s, err := NewServer(ports, WithVersion("test"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestNewServer_RequiresChat(t *testing.T) {
	s, err := NewServer(&Ports{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrMissingChatService)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &Ports{Chat: &mockChatService{}})

	rec := do(t, s, http.MethodGet, "/api/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t, &Ports{Chat: &mockChatService{}})

	first := do(t, s, http.MethodPost, "/api/sessions", nil, "")
	second := do(t, s, http.MethodPost, "/api/sessions", nil, "")

	require.Equal(t, http.StatusCreated, first.Code)
	var a, b sessionResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	_, err := uuid.Parse(a.SessionID)
	assert.NoError(t, err)
	assert.NotEqual(t, a.SessionID, b.SessionID)
}

func TestAsk(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		chat       *mockChatService
		wantStatus int
		wantCode   string
	}{
		{
			name:       "answers question",
			body:       `{"question":"  what is docchat?  "}`,
			chat:       &mockChatService{answer: domain.Answer{Text: "A tool", Sources: []string{"readme.txt"}}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty question",
			body:       `{"question":"   "}`,
			chat:       &mockChatService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "invalid JSON",
			body:       `{"question":`,
			chat:       &mockChatService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "history failure",
			body:       `{"question":"q"}`,
			chat:       &mockChatService{err: errors.New("disk full")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &Ports{Chat: tt.chat})

			rec := do(t, s, http.MethodPost, "/api/sessions/s1/ask", strings.NewReader(tt.body), "application/json")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			var answer domain.Answer
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
			assert.Equal(t, "A tool", answer.Text)
			assert.Equal(t, "what is docchat?", tt.chat.asked)
		})
	}
}

func TestHistory(t *testing.T) {
	chat := &mockChatService{history: []domain.Message{{Role: domain.RoleUser, Content: "hi"}}}
	s := newTestServer(t, &Ports{Chat: chat})

	rec := do(t, s, http.MethodGet, "/api/sessions/s1/history", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 1)
	assert.Equal(t, 1, resp.Summary.Total)

	rec = do(t, s, http.MethodDelete, "/api/sessions/s1/history", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "s1", chat.cleared)
}

func TestRoutesWithoutOptionalPorts(t *testing.T) {
	s := newTestServer(t, &Ports{Chat: &mockChatService{}})

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/knowledge/stats", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/s1/ingest", nil, "").Code)
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"unsupported", domain.ErrUnsupportedType, http.StatusBadRequest},
		{"declined start", domain.ErrAllFilesIndexed, http.StatusConflict},
		{"in progress", domain.ErrProcessingInProgress, http.StatusConflict},
		{"store down", domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"no embeddings", domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, fromDomain("msg", tt.err).Status)
		})
	}
}
