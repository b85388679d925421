package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUpload(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		extension string
		supported bool
	}{
		{"text file", "notes.txt", ".txt", true},
		{"pdf file", "report.pdf", ".pdf", true},
		{"uppercase extension", "REPORT.PDF", ".pdf", true},
		{"unsupported", "slides.pptx", ".pptx", false},
		{"no extension", "README", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUpload(tt.filename, []byte("data"))
			assert.Equal(t, tt.filename, u.Name)
			assert.Equal(t, tt.extension, u.Extension)
			assert.Equal(t, tt.supported, u.IsSupported())
			assert.Equal(t, 4, u.Size())
		})
	}
}

func TestUploadNames(t *testing.T) {
	uploads := []Upload{NewUpload("a.txt", nil), NewUpload("b.pdf", nil)}
	assert.Equal(t, []string{"a.txt", "b.pdf"}, UploadNames(uploads))
	assert.Empty(t, UploadNames(nil))
}

func TestFindUpload(t *testing.T) {
	uploads := []Upload{NewUpload("a.txt", []byte("a")), NewUpload("b.pdf", []byte("b"))}

	u, ok := FindUpload(uploads, "b.pdf")
	assert.True(t, ok)
	assert.Equal(t, []byte("b"), u.Content)

	_, ok = FindUpload(uploads, "missing.txt")
	assert.False(t, ok)
}
