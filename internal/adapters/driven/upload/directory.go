package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure DirectorySource implements the interface.
var _ driven.UploadSource = (*DirectorySource)(nil)

// DefaultMaxFileSize bounds the bytes read per file.
const DefaultMaxFileSize = 50 << 20

// ChangeType describes a filesystem change to the upload set.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeRemoved ChangeType = "removed"
)

// Change is one watched filesystem event, named like the upload it affects.
type Change struct {
	Name string
	Type ChangeType
}

// DirectorySource lists the regular, non-hidden files under a directory.
// Upload names are slash-separated paths relative to the root, and the
// selection order is lexical.
type DirectorySource struct {
	root        string
	maxFileSize int64

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// DirectoryOption configures a DirectorySource.
type DirectoryOption func(*DirectorySource)

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) DirectoryOption {
	return func(s *DirectorySource) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// NewDirectorySource creates a source over root.
func NewDirectorySource(root string, opts ...DirectoryOption) *DirectorySource {
	s := &DirectorySource{
		root:        root,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the watched directory.
func (s *DirectorySource) Root() string {
	return s.root
}

// Uploads reads every eligible file under the root.
// Files that vanish between listing and reading are left out.
func (s *DirectorySource) Uploads(ctx context.Context) ([]domain.Upload, error) {
	if err := s.checkRoot(); err != nil {
		return nil, err
	}

	var uploads []domain.Upload
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > s.maxFileSize {
			logger.Warn("Skipping %s: %d bytes exceeds limit", rel, info.Size())
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("read %s: %w", rel, err)
		}
		uploads = append(uploads, domain.NewUpload(filepath.ToSlash(rel), content))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return uploads, nil
}

// Watch reports changes under the root until ctx is cancelled or the
// source is closed. The channel is closed when watching stops.
func (s *DirectorySource) Watch(ctx context.Context) (<-chan Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("directory source is closed")
	}
	if err := s.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := s.addDirs(watcher, s.root); err != nil {
		watcher.Close()
		return nil, err
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.watcher = watcher

	changes := make(chan Change, 64)
	go s.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (s *DirectorySource) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			change := s.handleFsEvent(watcher, event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error under %s: %v", s.root, err)
		}
	}
}

// handleFsEvent maps an fsnotify event to a change. New directories are
// added to the watcher and produce no change of their own.
func (s *DirectorySource) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) *Change {
	rel, err := filepath.Rel(s.root, event.Name)
	if err != nil || rel == "." || isHidden(rel) {
		return nil
	}
	name := filepath.ToSlash(rel)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Name: name, Type: ChangeRemoved}

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if watcher != nil {
				if err := s.addDirs(watcher, event.Name); err != nil {
					logger.Warn("Cannot watch %s: %v", rel, err)
				}
			}
			return nil
		}
		return &Change{Name: name, Type: ChangeCreated}

	case event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &Change{Name: name, Type: ChangeUpdated}

	default:
		return nil
	}
}

// addDirs watches dir and every non-hidden directory below it.
func (s *DirectorySource) addDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(s.root, path); rel != "." && isHidden(rel) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Close stops watching. It is safe to call more than once.
func (s *DirectorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}

func (s *DirectorySource) checkRoot() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", s.root)
	}
	return nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

// Debounce collects changes until the channel has been quiet for the
// window, then emits them as one batch with duplicate names collapsed
// to their latest change. The output closes when in closes.
func Debounce(in <-chan Change, window time.Duration) <-chan []Change {
	out := make(chan []Change)
	go func() {
		defer close(out)

		pending := make(map[string]Change)
		var order []string
		timer := time.NewTimer(window)
		timer.Stop()

		flush := func() {
			if len(order) == 0 {
				return
			}
			batch := make([]Change, 0, len(order))
			for _, name := range order {
				batch = append(batch, pending[name])
			}
			out <- batch
			pending = make(map[string]Change)
			order = nil
		}

		for {
			select {
			case c, ok := <-in:
				if !ok {
					timer.Stop()
					flush()
					return
				}
				if _, seen := pending[c.Name]; !seen {
					order = append(order, c.Name)
				}
				pending[c.Name] = c
				timer.Reset(window)
			case <-timer.C:
				flush()
			}
		}
	}()
	return out
}
