package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"prscraper/pkg/logger"
)

// Checkpoint records how far a repository scrape has progressed so an
// interrupted run can resume without refetching everything. Progress is
// recorded from concurrent fetch workers, so every read and mutation of
// the fetched set goes through mu.
type Checkpoint struct {
	mu sync.Mutex

	Repo         string       `json:"repo"`
	LastListPage int          `json:"last_list_page"`
	FetchedPulls map[int]bool `json:"fetched_pulls"` // PR number -> files fetched
	TotalQueued  int          `json:"total_queued"`
	TotalFetched int          `json:"total_fetched"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Version      int          `json:"version"`
}

// Manager handles checkpoint persistence for one repository. mu
// serializes writers on the checkpoint file and its temp path.
type Manager struct {
	mu             sync.Mutex
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager rooted at dataDir.
func NewManager(dataDir, repo string) (*Manager, error) {
	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	fileName := strings.ReplaceAll(repo, "/", "_") + ".checkpoint.json"
	return &Manager{
		checkpointPath: filepath.Join(checkpointsDir, fileName),
		logger:         logger.GetLogger(),
	}, nil
}

// Create starts a fresh checkpoint for the repository.
func (m *Manager) Create(repo string) (*Checkpoint, error) {
	checkpoint := &Checkpoint{
		Repo:         repo,
		FetchedPulls: make(map[int]bool),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		Version:      1,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"repo": repo,
		"path": m.checkpointPath,
	})
	return checkpoint, nil
}

// Load returns the stored checkpoint, or nil if none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.FetchedPulls == nil {
		checkpoint.FetchedPulls = make(map[int]bool)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"repo":          checkpoint.Repo,
		"total_fetched": checkpoint.TotalFetched,
		"updated_at":    checkpoint.UpdatedAt,
	})
	return &checkpoint, nil
}

// Save writes the checkpoint to disk atomically. The checkpoint lock is
// held across encoding and the rename, which also serializes writers on
// the shared temp path.
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.mu.Lock()
	defer checkpoint.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}
	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"repo":          checkpoint.Repo,
		"total_fetched": checkpoint.TotalFetched,
	})
	return nil
}

// Delete removes the checkpoint file.
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// UpdateListPage records the last completed page of the pull list fetch.
func (m *Manager) UpdateListPage(checkpoint *Checkpoint, page int) error {
	checkpoint.mu.Lock()
	checkpoint.LastListPage = page
	checkpoint.mu.Unlock()
	return m.Save(checkpoint)
}

// RecordPull marks one pull request's artifacts as fully fetched. Safe to
// call from concurrent workers.
func (m *Manager) RecordPull(checkpoint *Checkpoint, number int) error {
	checkpoint.mu.Lock()
	if !checkpoint.FetchedPulls[number] {
		checkpoint.FetchedPulls[number] = true
		checkpoint.TotalFetched++
	}
	checkpoint.mu.Unlock()
	return m.Save(checkpoint)
}

// IsPullFetched reports whether a pull request was already processed.
func (c *Checkpoint) IsPullFetched(number int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.FetchedPulls[number]
}
