package domain

import "sort"

// Metadata keys written on every indexed chunk.
const (
	MetaFilename     = "filename"
	MetaSource       = "source"
	MetaPage         = "page"
	MetaChunkIndex   = "chunk_index"
	MetaChunkSize    = "chunk_size"
	MetaChunkOverlap = "chunk_overlap"
	MetaContentType  = "content_type"
)

// IndexedChunk is a bounded text segment stored in the knowledge base.
// It is immutable once stored.
type IndexedChunk struct {
	// ID uniquely identifies the chunk in the store.
	ID string

	// Content is the segment text.
	Content string

	// Metadata always carries filename and source.
	Metadata map[string]any
}

// Filename returns the filename metadata, or "" when unset.
func (c IndexedChunk) Filename() string {
	return MetadataString(c.Metadata, MetaFilename)
}

// Source returns the source metadata, or "" when unset.
func (c IndexedChunk) Source() string {
	return MetadataString(c.Metadata, MetaSource)
}

// MetadataString reads a string value from a metadata map.
func MetadataString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// KnowledgeStats aggregates the knowledge store contents.
type KnowledgeStats struct {
	// TotalDocuments is the number of stored chunks.
	TotalDocuments int `json:"total_documents"`

	// UniqueFiles is the number of distinct filenames.
	UniqueFiles int `json:"unique_files"`

	// ChunksPerFile maps filename to its chunk count.
	ChunksPerFile map[string]int `json:"chunks_per_file"`
}

// Filenames returns the indexed filenames sorted.
func (s KnowledgeStats) Filenames() []string {
	names := make([]string, 0, len(s.ChunksPerFile))
	for name := range s.ChunksPerFile {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileInfo describes one indexed file.
type FileInfo struct {
	Filename   string   `json:"filename"`
	ChunkCount int      `json:"chunk_count"`
	Sources    []string `json:"sources"`
}
