package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageBackend selects where chunks, state and history live.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite persists everything in a single SQLite database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageMemory
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Backend is the storage implementation.
	Backend StorageBackend

	// DataDir holds the database file. Empty means the default data directory.
	DataDir string
}

// IngestionSettings holds ingestion loop configuration.
type IngestionSettings struct {
	// FileTimeout bounds indexing a single file.
	FileTimeout time.Duration

	// TickInterval is the pause the host loop takes between ticks.
	TickInterval time.Duration
}

// RetrievalSettings holds question answering configuration.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// HistoryWindow is the number of recent messages shown to the LLM.
	HistoryWindow int
}

// ConversationSettings holds history bounds.
type ConversationSettings struct {
	// MaxHistory is the message count kept before truncation.
	MaxHistory int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Storage holds persistence settings.
	Storage StorageSettings

	// Ingestion holds ingestion loop settings.
	Ingestion IngestionSettings

	// Retrieval holds question answering settings.
	Retrieval RetrievalSettings

	// Conversation holds history settings.
	Conversation ConversationSettings
}

// Default service endpoints and sizes.
const (
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultTopK           = 4
	DefaultHistoryWindow  = 6
	DefaultMaxHistory     = 15
	DefaultFileTimeout    = 2 * time.Minute
	DefaultTickInterval   = 100 * time.Millisecond
	DefaultEmbeddingModel = "nomic-embed-text:v1.5"
	DefaultLLMModel       = "llama3.1:latest"
)

// DefaultAppSettings returns settings with sensible defaults.
// Both AI services default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModel,
			BaseURL:  DefaultOllamaURL,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModel,
			BaseURL:  DefaultOllamaURL,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Ingestion: IngestionSettings{
			FileTimeout:  DefaultFileTimeout,
			TickInterval: DefaultTickInterval,
		},
		Retrieval: RetrievalSettings{
			TopK:          DefaultTopK,
			HistoryWindow: DefaultHistoryWindow,
		},
		Conversation: ConversationSettings{
			MaxHistory: DefaultMaxHistory,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: DefaultEmbeddingModel,
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    DefaultLLMModel,
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
