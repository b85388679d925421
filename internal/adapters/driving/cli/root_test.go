package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	setErr      error
	validateErr error
	pingErr     error
	set         map[string]string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.provider", "retrieval.top_k"}
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error                { return m.validateErr }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error       { return m.pingErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// mockChatService implements driving.ChatService for testing.
type mockChatService struct {
	answer   domain.Answer
	askErr   error
	messages []domain.Message
	asked    []string
	cleared  bool
}

func (m *mockChatService) Ask(_ context.Context, _ string, question string) (domain.Answer, error) {
	m.asked = append(m.asked, question)
	return m.answer, m.askErr
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.Message, error) {
	return m.messages, nil
}

func (m *mockChatService) Summary(_ context.Context, _ string) (domain.ConversationSummary, error) {
	var s domain.ConversationSummary
	for _, msg := range m.messages {
		s.Total++
		if msg.Role == domain.RoleUser {
			s.User++
		} else {
			s.Assistant++
		}
	}
	return s, nil
}

func (m *mockChatService) Clear(_ context.Context, _ string) error {
	m.cleared = true
	m.messages = nil
	return nil
}

// mockKnowledgeService implements driving.KnowledgeService for testing.
type mockKnowledgeService struct {
	stats    domain.KnowledgeStats
	chunks   []domain.IndexedChunk
	verified bool
	removed  []string
	cleared  bool
}

func (m *mockKnowledgeService) Stats(_ context.Context) (domain.KnowledgeStats, error) {
	return m.stats, nil
}

func (m *mockKnowledgeService) ListFiles(_ context.Context) ([]string, error) {
	return m.stats.Filenames(), nil
}

func (m *mockKnowledgeService) FileInfo(_ context.Context, filename string) (*domain.FileInfo, error) {
	n, ok := m.stats.ChunksPerFile[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.FileInfo{Filename: filename, ChunkCount: n, Sources: []string{filename}}, nil
}

func (m *mockKnowledgeService) IsIndexed(_ context.Context, filename string) (bool, error) {
	_, ok := m.stats.ChunksPerFile[filename]
	return ok, nil
}

func (m *mockKnowledgeService) Inspect(_ context.Context, limit int) ([]domain.IndexedChunk, error) {
	if limit < len(m.chunks) {
		return m.chunks[:limit], nil
	}
	return m.chunks, nil
}

func (m *mockKnowledgeService) RemoveFile(_ context.Context, filename string) (bool, error) {
	m.removed = append(m.removed, filename)
	return m.verified, nil
}

func (m *mockKnowledgeService) Clear(_ context.Context) (bool, error) {
	m.cleared = true
	return m.verified, nil
}

// mockIngestion implements driving.IngestionService for testing.
type mockIngestion struct {
	state     domain.ProcessingState
	startErr  error
	started   []domain.Upload
	cancelled bool
	resetErr  error
}

func (m *mockIngestion) Start(_ context.Context, uploads []domain.Upload) (domain.ProcessingState, error) {
	if m.startErr != nil {
		return m.state, m.startErr
	}
	m.started = uploads
	m.state.Status = domain.StatusStarting
	m.state.TotalFiles = len(uploads)
	return m.state, nil
}

func (m *mockIngestion) ProcessNext(_ context.Context, _ []domain.Upload) (driving.TickResult, error) {
	return driving.TickResult{Outcome: driving.TickIdle, State: m.state}, nil
}

func (m *mockIngestion) UpdateFiles(_ context.Context, _ []domain.Upload) ([]string, error) {
	return nil, nil
}

func (m *mockIngestion) Cancel(_ context.Context, reason string) (bool, error) {
	if !m.state.Status.IsActive() {
		return false, nil
	}
	m.cancelled = true
	m.state.Status = domain.StatusCancelled
	m.state.Message = reason
	return true, nil
}

func (m *mockIngestion) Reset(_ context.Context) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.state = domain.ProcessingState{Status: domain.StatusIdle}
	return nil
}

func (m *mockIngestion) IsProcessing(_ context.Context) bool {
	return m.state.Status.IsActive()
}

func (m *mockIngestion) State(_ context.Context) (domain.ProcessingState, error) {
	return m.state, nil
}

// mockSessions implements driving.SessionRegistry for testing.
type mockSessions struct {
	ingestion *mockIngestion
	requested []string
}

func (m *mockSessions) Ingestion(sessionID string) driving.IngestionService {
	m.requested = append(m.requested, sessionID)
	return m.ingestion
}

func (m *mockSessions) CancelAll(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

// mockRunner implements driving.IngestionRunner by replaying ticks.
type mockRunner struct {
	ticks  []driving.TickResult
	final  domain.ProcessingState
	err    error
	source driven.UploadSource
	runs   int
}

func (m *mockRunner) Run(
	_ context.Context,
	_ driving.IngestionService,
	source driven.UploadSource,
	onTick driving.TickFunc,
) (domain.ProcessingState, error) {
	m.runs++
	m.source = source
	for _, tick := range m.ticks {
		if err := onTick(tick); err != nil {
			return tick.State, err
		}
	}
	return m.final, m.err
}

type testServices struct {
	settings  *mockSettingsService
	chat      *mockChatService
	knowledge *mockKnowledgeService
	ingestion *mockIngestion
	sessions  *mockSessions
	runner    *mockRunner
}

func (ts *testServices) services() *Services {
	return &Services{
		Settings:  ts.settings,
		Chat:      ts.chat,
		Knowledge: ts.knowledge,
		Sessions:  ts.sessions,
		Runner:    ts.runner,
	}
}

func newTestServices() *testServices {
	ingestion := &mockIngestion{state: domain.ProcessingState{Status: domain.StatusIdle}}
	return &testServices{
		settings:  newMockSettingsService(),
		chat:      &mockChatService{},
		knowledge: &mockKnowledgeService{verified: true},
		ingestion: ingestion,
		sessions:  &mockSessions{ingestion: ingestion},
		runner:    &mockRunner{},
	}
}

// setupTestServices installs mocks and resets flag state for one test.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := newTestServices()
	resetCommandState()
	SetServices(ts.services())
	t.Cleanup(func() {
		clearServices()
		resetCommandState()
	})
	return ts
}

// withBootstrap clears the services and installs a bootstrap that calls
// fn before returning mocks.
func withBootstrap(t *testing.T, fn func()) func() {
	t.Helper()
	clearServices()
	resetCommandState()
	prev := bootstrap
	SetBootstrap(func(_ context.Context, _ string) (*Services, error) {
		fn()
		return newTestServices().services(), nil
	})
	return func() {
		bootstrap = prev
		clearServices()
	}
}

func clearServices() {
	settingsService = nil
	chatService = nil
	knowledgeService = nil
	sessionRegistry = nil
	ingestionRunner = nil
	tickInterval = domain.DefaultTickInterval
	closeServices = nil
}

func resetCommandState() {
	resetFlags(rootCmd)
	verbose = false
	configDir = ""
	sessionID = "default"
	askJSON = false
	historyJSON = false
	historyClear = false
	kbJSON = false
	kbLimit = 10
	kbConfirmYes = false
	ingestDir = ""
	ingestWatch = false
	ingestJSON = false
	chatDir = ""
	stdin = strings.NewReader("")
}

// resetFlags returns every parsed flag in the tree to its default. Cobra
// keeps --help set on a command after it has been parsed once.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ask", "history", "chat", "ingest", "kb", "settings", "mcp", "serve", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestPrepareServices_Bootstraps(t *testing.T) {
	calls := 0
	restore := withBootstrap(t, func() { calls++ })
	defer restore()

	out, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, out, "retrieval.top_k")
}

func TestPrepareServices_PassesConfigDir(t *testing.T) {
	restore := withBootstrap(t, func() {})
	defer restore()

	var gotDir string
	SetBootstrap(func(_ context.Context, dir string) (*Services, error) {
		gotDir = dir
		return newTestServices().services(), nil
	})

	_, err := execute(t, "--config-dir", "/tmp/docchat-test", "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/docchat-test", gotDir)
}

func TestPrepareServices_BootstrapError(t *testing.T) {
	restore := withBootstrap(t, func() {})
	defer restore()
	SetBootstrap(func(_ context.Context, _ string) (*Services, error) {
		return nil, assert.AnError
	})

	_, err := execute(t, "settings", "keys")

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestReleaseServices_ClosesOnce(t *testing.T) {
	setupTestServices(t)
	closed := 0
	closeServices = func() error {
		closed++
		return nil
	}

	_, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Nil(t, closeServices)
}

func TestSetServices_KeepsDefaultTickInterval(t *testing.T) {
	setupTestServices(t)
	assert.Equal(t, domain.DefaultTickInterval, tickInterval)

	SetServices(&Services{TickInterval: 5 * domain.DefaultTickInterval})
	assert.Equal(t, 5*domain.DefaultTickInterval, tickInterval)

	SetServices(nil)
	assert.Equal(t, 5*domain.DefaultTickInterval, tickInterval)
}

func TestDeclined(t *testing.T) {
	assert.Equal(t, "No supported files to ingest.", declined(domain.ErrNoFiles))
	assert.Equal(t, "All files are already indexed.", declined(domain.ErrAllFilesIndexed))
	assert.Equal(t, "Ingestion is already in progress.", declined(domain.ErrProcessingInProgress))
	assert.Equal(t, assert.AnError.Error(), declined(assert.AnError))
}

func TestCommands_WithoutServices(t *testing.T) {
	restore := withBootstrap(t, func() {})
	defer restore()
	SetBootstrap(nil)

	tests := [][]string{
		{"ask", "hello"},
		{"history"},
		{"kb", "list"},
		{"ingest", "status"},
		{"settings", "show"},
		{"serve"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not configured")
		})
	}
}
