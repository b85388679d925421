package postprocessors

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/postprocessors/chunker"
	"github.com/custodia-labs/docchat/internal/postprocessors/whitespace"
)

// DefaultProcessors is the processor order used when none is configured.
var DefaultProcessors = []string{"chunker", "whitespace"}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("whitespace", buildWhitespace)
}

// NewDefaultPipeline builds the default processors with default config.
func NewDefaultPipeline() *Pipeline {
	return NewPipeline(chunker.New(), whitespace.New())
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Pin characters per chunk (default: adaptive)
//   - overlap (int): Pin overlapping characters (default: adaptive)
//   - structure_threshold (float): Paragraph density marking structured content
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}
	if threshold := getFloatFromConfig(cfg, "structure_threshold"); threshold > 0 {
		opts = append(opts, chunker.WithStructureThreshold(threshold))
	}

	return chunker.New(opts...), nil
}

// buildWhitespace creates a whitespace processor from generic config.
// Supported config keys:
//   - min_length (int): Drop chunks shorter than this many characters (default: 1)
func buildWhitespace(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []whitespace.Option
	if n := getIntFromConfig(cfg, "min_length"); n > 0 {
		opts = append(opts, whitespace.WithMinLength(n))
	}
	return whitespace.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getFloatFromConfig extracts a float64, accepting integer values too.
func getFloatFromConfig(cfg map[string]any, key string) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
