package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned when a requested blob does not exist on disk.
var ErrNotFound = errors.New("blob not found")

// Store persists fetched API artifacts as JSON blobs on disk. Blobs are
// grouped per repository so a repo's whole cache can be inspected or
// removed as a unit. Writes go through a temp file and atomic rename so a
// crash never leaves a half-written blob behind.
type Store struct {
	dataDir string
	mu      sync.RWMutex
}

// NewStore creates a store rooted at dataDir, creating it if needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// DataDir returns the root directory of the store.
func (s *Store) DataDir() string {
	return s.dataDir
}

// repoDir maps "owner/name" onto two directory levels. Flattening the
// separator into the name would be ambiguous for owners that themselves
// contain an underscore.
func (s *Store) repoDir(repo string) string {
	return filepath.Join(s.dataDir, filepath.FromSlash(repo))
}

// blobPath maps a repo and blob name to its file. Names may contain "/"
// to nest, e.g. "pull_42/raw_diff".
func (s *Store) blobPath(repo, name string) string {
	return filepath.Join(s.repoDir(repo), filepath.FromSlash(name)+".json")
}

// PullDir returns the directory holding one pull's blobs. Summary files
// written next to it share the same base path.
func (s *Store) PullDir(repo string, number int) string {
	return filepath.Join(s.repoDir(repo), fmt.Sprintf("pull_%d", number))
}

// Exists reports whether a blob is present.
func (s *Store) Exists(repo, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.blobPath(repo, name))
	return err == nil
}

// ReadJSON loads a blob into v. Returns ErrNotFound for missing blobs.
func (s *Store) ReadJSON(repo, name string, v interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.blobPath(repo, name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read blob %s/%s: %w", repo, name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode blob %s/%s: %w", repo, name, err)
	}
	return nil
}

// WriteJSON stores v as a blob, replacing any previous version atomically.
func (s *Store) WriteJSON(repo, name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode blob %s/%s: %w", repo, name, err)
	}

	path := s.blobPath(repo, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary blob: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary blob: %w", err)
	}
	return nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *Store) Delete(repo, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.blobPath(repo, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s/%s: %w", repo, name, err)
	}
	return nil
}

// Repos lists the repositories that have at least one stored blob.
func (s *Store) Repos() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var repos []string
	for _, owner := range entries {
		// The checkpoints directory lives next to the owner directories.
		if !owner.IsDir() || owner.Name() == "checkpoints" {
			continue
		}
		names, err := os.ReadDir(filepath.Join(s.dataDir, owner.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read owner directory %s: %w", owner.Name(), err)
		}
		for _, name := range names {
			if name.IsDir() {
				repos = append(repos, owner.Name()+"/"+name.Name())
			}
		}
	}
	return repos, nil
}
