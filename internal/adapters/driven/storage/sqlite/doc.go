// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - VectorStore: chunk records with embeddings and JSON metadata
//   - ProcessingStateStore: per-session ingestion state
//   - HistoryStore: per-session conversation history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Similarity Search
//
// Embeddings are stored as little-endian float32 blobs and ranked by brute-force
// cosine similarity in Go. This is adequate for a personal document collection.
//
// # Data Location
//
// By default, the database is stored at ~/.docchat/data/docchat.db
package sqlite
