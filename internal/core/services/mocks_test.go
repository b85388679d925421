package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockEmbedding implements driven.EmbeddingService with deterministic
// bag-of-words vectors, so texts sharing words land close together.
type mockEmbedding struct {
	dims     int
	embedErr error
	batchErr error
	calls    int
}

func newMockEmbedding() *mockEmbedding {
	return &mockEmbedding{dims: 16}
}

func (m *mockEmbedding) vector(text string) []float32 {
	v := make([]float32, m.dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		v[int(h.Sum32())%m.dims]++
	}
	return v
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int              { return m.dims }
func (m *mockEmbedding) ModelName() string            { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// mockLLM implements driven.LLMService.
type mockLLM struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockIndexChecker implements IndexChecker over a fixed set of names.
type mockIndexChecker struct {
	mu      sync.Mutex
	indexed map[string]bool
	err     error
}

func newMockIndexChecker(names ...string) *mockIndexChecker {
	m := &mockIndexChecker{indexed: make(map[string]bool)}
	for _, n := range names {
		m.indexed[n] = true
	}
	return m
}

func (m *mockIndexChecker) Exists(_ context.Context, filename string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.indexed[filename], nil
}

func (m *mockIndexChecker) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// mockIndexer implements FileIndexer. Indexed files become visible to the
// linked checker, mirroring a real knowledge store.
type mockIndexer struct {
	mu      sync.Mutex
	checker *mockIndexChecker
	errs    map[string]error
	block   map[string]bool
	chunks  int
	calls   []string
}

func newMockIndexer(checker *mockIndexChecker) *mockIndexer {
	return &mockIndexer{
		checker: checker,
		errs:    make(map[string]error),
		block:   make(map[string]bool),
		chunks:  3,
	}
}

func (m *mockIndexer) Index(ctx context.Context, upload domain.Upload) (domain.IndexReport, error) {
	m.mu.Lock()
	m.calls = append(m.calls, upload.Name)
	err := m.errs[upload.Name]
	block := m.block[upload.Name]
	m.mu.Unlock()

	report := domain.IndexReport{Filename: upload.Name}
	if block {
		<-ctx.Done()
		return report, ctx.Err()
	}
	if err != nil {
		return report, err
	}

	if m.checker != nil {
		m.checker.mu.Lock()
		m.checker.indexed[upload.Name] = true
		m.checker.mu.Unlock()
	}
	report.Stats = domain.ChunkStats{Count: m.chunks}
	return report, nil
}

func (m *mockIndexer) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// gatedIndexer holds the first Index call until release is closed.
type gatedIndexer struct {
	*mockIndexer
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedIndexer(inner *mockIndexer) *gatedIndexer {
	return &gatedIndexer{
		mockIndexer: inner,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedIndexer) Index(ctx context.Context, upload domain.Upload) (domain.IndexReport, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.mockIndexer.Index(ctx, upload)
}

// mockExtractor implements driven.Extractor returning the content as one page.
type mockExtractor struct {
	err error
}

func (m *mockExtractor) Extract(_ context.Context, content []byte, ext string) ([]domain.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !domain.IsSupportedExtension(ext) {
		return nil, domain.ErrUnsupportedType
	}
	return []domain.Page{{Index: 0, Text: string(content)}}, nil
}

func (m *mockExtractor) SupportedExtensions() []string {
	return []string{domain.ExtensionPDF, domain.ExtensionText}
}

// failingVectorStore implements driven.VectorStore with every call failing.
type failingVectorStore struct {
	err error
}

func (f *failingVectorStore) Get(_ context.Context, _ driven.MetadataFilter, _ int) (*driven.GetResult, error) {
	return nil, f.err
}

func (f *failingVectorStore) Add(_ context.Context, _ []driven.VectorRecord) error { return f.err }
func (f *failingVectorStore) Delete(_ context.Context, _ []string) error           { return f.err }

func (f *failingVectorStore) SimilaritySearch(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return nil, f.err
}

func (f *failingVectorStore) Close() error { return nil }

// uploads builds text uploads with placeholder content.
func uploads(names ...string) []domain.Upload {
	out := make([]domain.Upload, len(names))
	for i, n := range names {
		out[i] = domain.NewUpload(n, []byte("content of "+n))
	}
	return out
}
