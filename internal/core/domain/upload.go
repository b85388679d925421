package domain

import (
	"path/filepath"
	"strings"
)

// Supported upload extensions.
const (
	ExtensionPDF  = ".pdf"
	ExtensionText = ".txt"
)

// Upload is a file supplied by the user for indexing.
// Only derived chunks are persisted; the bytes belong to the caller and may
// disappear between ticks.
type Upload struct {
	// Name is the file name and the join key with indexed chunks.
	Name string

	// Extension is the lowercased extension including the dot.
	Extension string

	// Content holds the raw file bytes.
	Content []byte
}

// NewUpload creates an upload, deriving the extension from the name.
func NewUpload(name string, content []byte) Upload {
	return Upload{
		Name:      name,
		Extension: strings.ToLower(filepath.Ext(name)),
		Content:   content,
	}
}

// Size returns the content length in bytes.
func (u Upload) Size() int {
	return len(u.Content)
}

// IsSupported reports whether the extension has an extractor.
func (u Upload) IsSupported() bool {
	return IsSupportedExtension(u.Extension)
}

// IsSupportedExtension reports whether ext (with dot, any case) is indexable.
func IsSupportedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtensionPDF, ExtensionText:
		return true
	default:
		return false
	}
}

// UploadNames returns the names of uploads in order.
func UploadNames(uploads []Upload) []string {
	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = u.Name
	}
	return names
}

// FindUpload returns the upload with the given name.
func FindUpload(uploads []Upload, name string) (Upload, bool) {
	for _, u := range uploads {
		if u.Name == name {
			return u, true
		}
	}
	return Upload{}, false
}
