// Package fs provides a filesystem-backed dao.Service built on viant/afs, so
// approval requests, decisions and run checkpoints survive process restarts.
// A single generic store parameterised by a key selector replaces one
// hand-written DAO per entity.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"

	"github.com/stewardai/steward/service/dao"
)

// Store implements dao.Service on top of a filesystem (or any afs-supported
// storage scheme).  Each entity is serialised as one JSON file named by its
// key under basePath.
type Store[T any] struct {
	basePath    string
	fs          afs.Service
	keySelector func(*T) string
	mu          sync.RWMutex
}

// New creates a filesystem store rooted at basePath.  The directory is
// created when missing.
func New[T any](basePath string, keySelector func(*T) string) (*Store[T], error) {
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
	return &Store[T]{basePath: basePath, fs: fsService, keySelector: keySelector}, nil
}

// Ensure Store implements dao.Service.
var _ dao.Service[string, struct{}] = (*Store[struct{}])(nil)

// Save persists an entity as a JSON file.
func (s *Store[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	if key == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	filePath := s.entryPath(key)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save entity to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves an entity by key.
func (s *Store[T]) Load(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.entryPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if entity exists: %w", err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity file: %w", err)
	}
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity data: %w", err)
	}
	return &entity, nil
}

// Delete removes an entity by key.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.entryPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if entity exists: %w", err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete entity file %s: %w", filePath, err)
	}
	return nil
}

// List returns all stored entities.
func (s *Store[T]) List(ctx context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list entity files: %w", err)
	}
	var entities []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.Printf("error reading entity file %s: %v", object.URL(), err)
			continue
		}
		var entity T
		if err := json.Unmarshal(data, &entity); err != nil {
			log.Printf("error unmarshaling entity from %s: %v", object.URL(), err)
			continue
		}
		entities = append(entities, &entity)
	}
	return entities, nil
}

// entryPath returns the file path for a key.  Path separators in keys are
// flattened so composite identifiers stay within basePath.
func (s *Store[T]) entryPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", strings.ReplaceAll(id, "/", "_")))
}
