package ai

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks that the Ollama, OpenAI or Anthropic endpoint a
// setting points at answers, before ingestion or chat depend on it.
type ConfigValidator struct {
	pingEmbedding func(*domain.EmbeddingSettings) error
	pingLLM       func(*domain.LLMSettings) error
}

// NewConfigValidator creates a validator that pings the real providers.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		pingEmbedding: ValidateEmbeddingConfig,
		pingLLM:       ValidateLLMConfig,
	}
}

// ValidateEmbedding pings the embedding provider. Settings without a usable
// provider pass; a provider that does not answer is reported as
// domain.ErrEmbeddingUnavailable naming the provider and model.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	if err := v.pingEmbedding(settings); err != nil {
		return unavailable(domain.ErrEmbeddingUnavailable, settings.Provider, settings.Model, err)
	}
	return nil
}

// ValidateLLM pings the LLM provider, reporting failures as
// domain.ErrLLMUnavailable.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	if err := v.pingLLM(settings); err != nil {
		return unavailable(domain.ErrLLMUnavailable, settings.Provider, settings.Model, err)
	}
	return nil
}

func unavailable(sentinel error, provider domain.AIProvider, model string, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("%s (%s): %w", provider, model, err)
	}
	return fmt.Errorf("%w: %s (%s): %w", sentinel, provider, model, err)
}
