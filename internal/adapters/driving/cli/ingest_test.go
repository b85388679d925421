package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driven/upload"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func completedState(results ...domain.FileResult) domain.ProcessingState {
	return domain.ProcessingState{
		Status:   domain.StatusCompleted,
		Progress: 1,
		Message:  domain.MessageCompleted(),
		Results:  results,
	}
}

func TestIngestCmd_Files(t *testing.T) {
	ts := setupTestServices(t)
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.txt", "alpha")
	b := writeTestFile(t, dir, "b.txt", "beta")

	indexed := domain.FileResult{Filename: "a.txt", Outcome: domain.OutcomeIndexed, Chunks: 3}
	failed := domain.FileResult{Filename: "b.txt", Outcome: domain.OutcomeFailed, Reason: "no text"}
	ts.runner.ticks = []driving.TickResult{
		{Outcome: driving.TickIndexed, File: &indexed},
		{Outcome: driving.TickFailed, File: &failed},
	}
	ts.runner.final = completedState(indexed, failed)

	out, err := execute(t, "ingest", a, b)

	require.NoError(t, err)
	require.Len(t, ts.ingestion.started, 2)
	assert.Equal(t, "a.txt", ts.ingestion.started[0].Name)
	assert.Equal(t, 1, ts.runner.runs)
	assert.Contains(t, out, "Ingesting 2 file(s)")
	assert.Contains(t, out, "a.txt (3 chunks")
	assert.Contains(t, out, "b.txt (no text)")
	assert.Contains(t, out, "Done: 1 indexed, 0 skipped, 1 failed")
}

func TestIngestCmd_UsesSession(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingestion.startErr = domain.ErrAllFilesIndexed
	path := writeTestFile(t, t.TempDir(), "a.txt", "alpha")

	_, err := execute(t, "--session", "team", "ingest", path)

	require.NoError(t, err)
	assert.Equal(t, []string{"team"}, ts.sessions.requested)
}

func TestIngestCmd_DeclinedStart(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingestion.startErr = domain.ErrAllFilesIndexed
	path := writeTestFile(t, t.TempDir(), "a.txt", "alpha")

	out, err := execute(t, "ingest", path)

	require.NoError(t, err)
	assert.Contains(t, out, "All files are already indexed.")
	assert.Zero(t, ts.runner.runs)
}

func TestIngestCmd_ResumesActiveRun(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingestion.startErr = domain.ErrProcessingInProgress
	ts.ingestion.state = domain.ProcessingState{
		Status:           domain.StatusProcessing,
		CurrentFileIndex: 2,
		TotalFiles:       5,
	}
	ts.runner.final = completedState()
	path := writeTestFile(t, t.TempDir(), "a.txt", "alpha")

	out, err := execute(t, "ingest", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Resuming ingestion at file 3 of 5")
	assert.Equal(t, 1, ts.runner.runs)
}

func TestIngestCmd_StartError(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingestion.startErr = assert.AnError
	path := writeTestFile(t, t.TempDir(), "a.txt", "alpha")

	_, err := execute(t, "ingest", path)

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestIngestCmd_ErrorStatus(t *testing.T) {
	ts := setupTestServices(t)
	ts.runner.final = domain.ProcessingState{Status: domain.StatusError, Message: "store unavailable"}
	path := writeTestFile(t, t.TempDir(), "a.txt", "alpha")

	_, err := execute(t, "ingest", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestIngestCmd_CancelledRun(t *testing.T) {
	ts := setupTestServices(t)
	ts.runner.final = domain.ProcessingState{Status: domain.StatusCancelled, Message: domain.CancelReasonAllRemoved}
	path := writeTestFile(t, t.TempDir(), "a.txt", "alpha")

	out, err := execute(t, "ingest", path)

	require.NoError(t, err)
	assert.Contains(t, out, domain.CancelReasonAllRemoved)
}

func TestIngestCmd_Directory(t *testing.T) {
	ts := setupTestServices(t)
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "alpha")
	ts.runner.final = completedState()

	_, err := execute(t, "ingest", "--dir", dir)

	require.NoError(t, err)
	require.Len(t, ts.ingestion.started, 1)
	assert.IsType(t, &upload.DirectorySource{}, ts.runner.source)
}

func TestIngestCmd_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing", []string{"ingest"}, "specify files"},
		{"both", []string{"ingest", "--dir", ".", "a.txt"}, "not both"},
		{"watch without dir", []string{"ingest", "--watch"}, "--watch requires --dir"},
		{"missing file", []string{"ingest", "/nonexistent/file.txt"}, "read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestServices(t)
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIngestStatusCmd(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingestion.state = domain.ProcessingState{
		Status:           domain.StatusProcessing,
		CurrentFileIndex: 1,
		TotalFiles:       4,
		Progress:         0.25,
		Message:          domain.MessageProcessing("b.txt", 2, 4),
		Results: []domain.FileResult{
			{Filename: "a.txt", Outcome: domain.OutcomeSkipped, Reason: "already indexed"},
		},
	}

	out, err := execute(t, "ingest", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Status: processing")
	assert.Contains(t, out, "Progress: 1/4 (25%)")
	assert.Contains(t, out, "a.txt (already indexed)")
}

func TestIngestStatusCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingestion.state = domain.ProcessingState{Status: domain.StatusCompleted, TotalFiles: 1}

	out, err := execute(t, "ingest", "status", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"completed"`)
}

func TestIngestCancelCmd(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "ingest", "cancel")
	require.NoError(t, err)
	assert.Contains(t, out, "No active ingestion")

	ts.ingestion.state.Status = domain.StatusProcessing
	out, err = execute(t, "ingest", "cancel")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingestion cancelled.")
	assert.True(t, ts.ingestion.cancelled)
	assert.Equal(t, domain.CancelReasonDefault, ts.ingestion.state.Message)
}

func TestIngestResetCmd(t *testing.T) {
	ts := setupTestServices(t)
	ts.ingestion.state.Status = domain.StatusCompleted

	out, err := execute(t, "ingest", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingestion state reset.")
	assert.Equal(t, domain.StatusIdle, ts.ingestion.state.Status)

	ts.ingestion.resetErr = domain.ErrProcessingInProgress
	_, err = execute(t, "ingest", "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancel it first")
}

func TestFormatResult(t *testing.T) {
	r := domain.FileResult{Filename: "a.txt", Outcome: domain.OutcomeIndexed, Chunks: 2, Duration: 1500 * time.Microsecond}
	assert.Equal(t, "indexed  a.txt (2 chunks, 2ms)", formatResult(r))

	r = domain.FileResult{Filename: "b.txt", Outcome: domain.OutcomeSkipped}
	assert.Equal(t, "skipped  b.txt", formatResult(r))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[----]", progressBar(0, 4))
	assert.Equal(t, "[##--]", progressBar(0.5, 4))
	assert.Equal(t, "[####]", progressBar(1.5, 4))
	assert.Equal(t, "[----]", progressBar(-1, 4))
}

func TestProgressPrinter_NotTerminal(t *testing.T) {
	buf := new(bytes.Buffer)
	p := newProgressPrinter(buf)
	assert.False(t, p.tty)

	file := domain.FileResult{Filename: "a.txt", Outcome: domain.OutcomeFailed, Reason: "bad pdf"}
	require.NoError(t, p.tick(driving.TickResult{
		Outcome: driving.TickFailed,
		File:    &file,
		State:   domain.ProcessingState{Status: domain.StatusProcessing, Progress: 0.5},
	}))
	require.NoError(t, p.tick(driving.TickResult{Outcome: driving.TickCompleted}))
	p.done()

	assert.Equal(t, "  failed   a.txt (bad pdf)\n", buf.String())
}
