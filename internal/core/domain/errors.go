package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file extension no extractor handles.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoContent indicates a file produced no extractable text.
	ErrNoContent = errors.New("no extractable text")

	// ErrConfigNotFound indicates a configuration key is not set.
	ErrConfigNotFound = errors.New("config key not found")

	// Ingestion Errors.

	// ErrProcessingInProgress indicates a processing cycle is already active
	// for the session.
	ErrProcessingInProgress = errors.New("processing already in progress")

	// ErrAllFilesIndexed declines a start request whose files are all
	// present in the knowledge store.
	ErrAllFilesIndexed = errors.New("all files already indexed")

	// ErrNoFiles declines a start request with an empty upload set.
	ErrNoFiles = errors.New("no files selected")

	// Service Errors.

	// ErrStoreUnavailable indicates the knowledge store could not be reached.
	ErrStoreUnavailable = errors.New("knowledge store unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Nothing can be indexed or retrieved without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// IsDeclinedStart reports whether err is one of the start refusals that leave
// the processing state untouched.
func IsDeclinedStart(err error) bool {
	return errors.Is(err, ErrProcessingInProgress) ||
		errors.Is(err, ErrAllFilesIndexed) ||
		errors.Is(err, ErrNoFiles)
}
