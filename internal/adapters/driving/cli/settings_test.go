package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShowCmd(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		Model:    "claude-3-5-sonnet-latest",
		APIKey:   "sk-ant-1234567890",
	}

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Ollama (local)")
	assert.Contains(t, out, "API Key: sk-a...7890")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Top K: 4")
	assert.Contains(t, out, "Max history: 15")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_Invalid(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.validateErr = domain.ErrInvalidInput

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "docchat settings wizard")
}

func TestSettingsSetCmd(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "settings", "set", "retrieval.top_k", "6")
	require.NoError(t, err)
	assert.Equal(t, "6", ts.settings.set["retrieval.top_k"])
	assert.Contains(t, out, "retrieval.top_k = 6")

	out, err = execute(t, "settings", "set", "llm.api_key", "sk-secret-value")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret-value")

	ts.settings.setErr = domain.ErrInvalidInput
	_, err = execute(t, "settings", "set", "nope", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeysCmd(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "embedding.provider\nretrieval.top_k\n", out)
}

func TestSettingsValidateCmd(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "settings", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Embedding provider... OK")
	assert.Contains(t, out, "LLM provider... OK")

	ts.settings.pingErr = assert.AnError
	_, err = execute(t, "settings", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding provider")
}

func TestSettingsEmbeddingCmd_Defaults(t *testing.T) {
	ts := setupTestServices(t)
	stdin = strings.NewReader("\n\n")

	out, err := execute(t, "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, domain.DefaultEmbeddingModel, ts.settings.settings.Embedding.Model)
	assert.Contains(t, out, "Embedding provider configured")
}

func TestSettingsLLMCmd_RequiresAPIKey(t *testing.T) {
	ts := setupTestServices(t)

	stdin = strings.NewReader("2\n\n\n")
	_, err := execute(t, "settings", "llm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	stdin = strings.NewReader("2\ngpt-4o\nsk-test-key\n")
	_, err = execute(t, "settings", "llm")
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "gpt-4o", ts.settings.settings.LLM.Model)
	assert.Equal(t, "sk-test-key", ts.settings.settings.LLM.APIKey)
}

func TestSettingsLLMCmd_ValidationFails(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.pingErr = assert.AnError
	stdin = strings.NewReader("1\n\n")

	out, err := execute(t, "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, out, "FAILED")
}

func TestSettingsWizardCmd(t *testing.T) {
	ts := setupTestServices(t)
	stdin = strings.NewReader("1\n\n3\n\nsk-ant-key\n")

	out, err := execute(t, "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, domain.AIProviderAnthropic, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "sk-ant-key", ts.settings.settings.LLM.APIKey)
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestDisplayAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", displayAPIKey(""))
	assert.Equal(t, "sk-1...cdef", displayAPIKey("sk-1234567890abcdef"))
}
