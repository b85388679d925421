package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestStaticSource_AddReplacesInPlace(t *testing.T) {
	s := NewStaticSource(
		domain.NewUpload("a.txt", []byte("one")),
		domain.NewUpload("b.pdf", []byte("two")),
	)

	s.Add(domain.NewUpload("a.txt", []byte("updated")))
	s.Add(domain.NewUpload("c.txt", []byte("three")))

	uploads, err := s.Uploads(context.Background())
	require.NoError(t, err)
	require.Len(t, uploads, 3)
	assert.Equal(t, "a.txt", uploads[0].Name)
	assert.Equal(t, []byte("updated"), uploads[0].Content)
	assert.Equal(t, []string{"a.txt", "b.pdf", "c.txt"}, s.Names())
}

func TestStaticSource_Remove(t *testing.T) {
	s := NewStaticSource(domain.NewUpload("a.txt", nil), domain.NewUpload("b.txt", nil))

	assert.True(t, s.Remove("a.txt"))
	assert.False(t, s.Remove("a.txt"))
	assert.Equal(t, []string{"b.txt"}, s.Names())

	s.Clear()
	assert.Empty(t, s.Names())
}

func TestStaticSource_UploadsReturnsCopy(t *testing.T) {
	s := NewStaticSource(domain.NewUpload("a.txt", nil))

	uploads, err := s.Uploads(context.Background())
	require.NoError(t, err)
	uploads[0].Name = "changed"

	assert.Equal(t, []string{"a.txt"}, s.Names())
}

func TestFromFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Notes.TXT")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	s, err := FromFiles(path)
	require.NoError(t, err)

	uploads, err := s.Uploads(context.Background())
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "Notes.TXT", uploads[0].Name)
	assert.Equal(t, ".txt", uploads[0].Extension)
	assert.Equal(t, []byte("hello"), uploads[0].Content)
}

func TestFromFiles_MissingFile(t *testing.T) {
	_, err := FromFiles(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	a := r.Source("a")
	a.Add(domain.NewUpload("x.txt", nil))
	assert.Same(t, a, r.Source("a"))
	r.Source("b")
	assert.Equal(t, []string{"a", "b"}, r.Sessions())

	r.Drop("a")
	assert.Equal(t, []string{"b"}, r.Sessions())
	assert.Empty(t, r.Source("a").Names())
}
