// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns text into vectors for indexing and retrieval
//   - LLMService: Generates answers from grounded prompts
//   - VectorStore: Metadata-filterable chunk storage with similarity search
//   - Extractor: Turns upload bytes into text pages
//   - ChunkingPipeline: Turns extracted text into chunks
//   - ProcessingStateStore: Per-session ingestion state persistence
//   - HistoryStore: Per-session conversation persistence
//   - UploadSource: Supplies the live upload set every tick
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: Customisable prompt templates. Built-in defaults apply when nil.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or post-processor package
package driven
