// Package fs provides a filesystem-backed preference store built on
// viant/afs, so preference profiles survive process restarts.  Each namespace
// is persisted as one text blob under the base path.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/stewardai/steward/service/preference"
)

// Store implements preference.Store on top of a filesystem (or any
// afs-supported storage scheme).
type Store struct {
	basePath    string
	fs          afs.Service
	synthesizer preference.Synthesizer
	locks       sync.Map // namespace key -> *sync.Mutex
}

// New creates a filesystem store rooted at basePath.  The directory is
// created when missing.
func New(basePath string, synthesizer preference.Synthesizer) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fsService := afs.New()
	ctx := context.Background()
	exists, _ := fsService.Exists(ctx, basePath)
	if !exists {
		if err := fsService.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base path %s: %w", basePath, err)
		}
	}
	return &Store{basePath: basePath, fs: fsService, synthesizer: synthesizer}, nil
}

var _ preference.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, ns preference.Namespace, defaultValue string) (string, error) {
	blobPath := s.entryPath(ns)
	exists, err := s.fs.Exists(ctx, blobPath)
	if err != nil {
		return "", fmt.Errorf("failed to check profile %s: %w", blobPath, err)
	}
	if !exists {
		return defaultValue, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, blobPath)
	if err != nil {
		return "", fmt.Errorf("failed to read profile %s: %w", blobPath, err)
	}
	return string(data), nil
}

func (s *Store) Update(ctx context.Context, ns preference.Namespace, defaultValue, feedback string) error {
	if s.synthesizer == nil {
		return fmt.Errorf("no synthesizer configured")
	}
	lock := s.lockFor(ns)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.Get(ctx, ns, defaultValue)
	if err != nil {
		return err
	}
	next, err := s.synthesizer.Synthesize(ctx, ns, current, feedback)
	if err != nil {
		return fmt.Errorf("failed to synthesize %v: %w", ns, err)
	}
	blobPath := s.entryPath(ns)
	if err = s.fs.Upload(ctx, blobPath, file.DefaultFileOsMode, bytes.NewReader([]byte(next))); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", blobPath, err)
	}
	return nil
}

func (s *Store) lockFor(ns preference.Namespace) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(ns.Key(), &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (s *Store) entryPath(ns preference.Namespace) string {
	return path.Join(s.basePath, strings.ReplaceAll(ns.Key(), "/", "_")+".txt")
}
