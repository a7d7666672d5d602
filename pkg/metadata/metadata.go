package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prscraper/pkg/diff"
)

// PullMetadata represents the summary of a fetched pull request
type PullMetadata struct {
	// Core identifiers
	Repo   string `json:"repo"`
	Number int    `json:"number"`

	// Aggregate change counts over the kept code files
	FileCount  int `json:"file_count"`
	AddedLOC   int `json:"added_loc"`
	DeletedLOC int `json:"deleted_loc"`

	// Per-file breakdown
	Files []FileSummary `json:"files,omitempty"`

	// Timestamps
	FetchedAt time.Time `json:"fetched_at"`
}

// FileSummary represents the change counts of a single file
type FileSummary struct {
	Name       string `json:"name"`
	AddedLOC   int    `json:"added_loc"`
	DeletedLOC int    `json:"deleted_loc"`
}

// FromFileStats builds pull request metadata from parsed diff statistics
func FromFileStats(repo string, number int, files []diff.FileStats) *PullMetadata {
	meta := &PullMetadata{
		Repo:      repo,
		Number:    number,
		FileCount: len(files),
		FetchedAt: time.Now(),
	}

	for _, f := range files {
		meta.AddedLOC += f.AddedLOC
		meta.DeletedLOC += f.DeletedLOC
		meta.Files = append(meta.Files, FileSummary{
			Name:       f.Name,
			AddedLOC:   f.AddedLOC,
			DeletedLOC: f.DeletedLOC,
		})
	}

	return meta
}

// Save writes the metadata to a JSON file next to the pull's blob directory
func (m *PullMetadata) Save(basePath string) error {
	metadataPath := basePath + ".summary.json"

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metadataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads metadata from a JSON file
func Load(basePath string) (*PullMetadata, error) {
	metadataPath := basePath + ".summary.json"

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta PullMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// LargestFile returns the file with the most changed lines
func (m *PullMetadata) LargestFile() string {
	largest := ""
	most := -1
	for _, f := range m.Files {
		if f.AddedLOC+f.DeletedLOC > most {
			most = f.AddedLOC + f.DeletedLOC
			largest = f.Name
		}
	}
	return largest
}

// ChangeShape classifies the pull by the balance of additions and deletions
func (m *PullMetadata) ChangeShape() string {
	if m.DeletedLOC == 0 && m.AddedLOC == 0 {
		return "empty"
	}
	if m.DeletedLOC == 0 {
		return "pure addition"
	}
	if m.AddedLOC == 0 {
		return "pure deletion"
	}

	ratio := float64(m.AddedLOC) / float64(m.DeletedLOC)
	switch {
	case ratio > 3:
		return "mostly additions"
	case ratio < 0.33:
		return "mostly deletions"
	default:
		return "mixed"
	}
}

// Exists checks if a metadata file exists for a pull
func Exists(basePath string) bool {
	_, err := os.Stat(basePath + ".summary.json")
	return err == nil
}

// CleanOrphaned removes summary files whose pull blob directory is gone
func CleanOrphaned(directory string) error {
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if strings.HasSuffix(path, ".summary.json") {
			basePath := strings.TrimSuffix(path, ".summary.json")

			if _, err := os.Stat(basePath); os.IsNotExist(err) {
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
				}
			}
		}

		return nil
	})
}
