package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"prscraper/pkg/diff"
)

func sampleStats() []diff.FileStats {
	return []diff.FileStats{
		{Name: "main.go", AddedLOC: 10, DeletedLOC: 2},
		{Name: "util/parse.go", AddedLOC: 3, DeletedLOC: 8},
	}
}

func TestFromFileStats(t *testing.T) {
	meta := FromFileStats("octocat/hello", 42, sampleStats())

	if meta.Repo != "octocat/hello" || meta.Number != 42 {
		t.Errorf("unexpected identifiers: %s #%d", meta.Repo, meta.Number)
	}
	if meta.FileCount != 2 {
		t.Errorf("expected 2 files, got %d", meta.FileCount)
	}
	if meta.AddedLOC != 13 || meta.DeletedLOC != 10 {
		t.Errorf("unexpected totals: +%d -%d", meta.AddedLOC, meta.DeletedLOC)
	}
	if meta.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
	if meta.LargestFile() != "main.go" {
		t.Errorf("expected main.go as largest file, got %s", meta.LargestFile())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "pull_42")

	meta := FromFileStats("octocat/hello", 42, sampleStats())

	if Exists(basePath) {
		t.Error("metadata should not exist before save")
	}

	if err := meta.Save(basePath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !Exists(basePath) {
		t.Error("metadata should exist after save")
	}

	loaded, err := Load(basePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.AddedLOC != meta.AddedLOC || loaded.DeletedLOC != meta.DeletedLOC {
		t.Errorf("loaded totals mismatch: +%d -%d", loaded.AddedLOC, loaded.DeletedLOC)
	}
	if len(loaded.Files) != 2 {
		t.Errorf("expected 2 file summaries, got %d", len(loaded.Files))
	}
}

func TestChangeShape(t *testing.T) {
	tests := []struct {
		name    string
		added   int
		deleted int
		want    string
	}{
		{"empty", 0, 0, "empty"},
		{"pure addition", 20, 0, "pure addition"},
		{"pure deletion", 0, 7, "pure deletion"},
		{"mostly additions", 40, 5, "mostly additions"},
		{"mostly deletions", 5, 40, "mostly deletions"},
		{"mixed", 10, 12, "mixed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := &PullMetadata{AddedLOC: tt.added, DeletedLOC: tt.deleted}
			if got := meta.ChangeShape(); got != tt.want {
				t.Errorf("ChangeShape() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanOrphaned(t *testing.T) {
	dir := t.TempDir()

	// Pull with its blob directory still present
	keptBase := filepath.Join(dir, "pull_1")
	if err := os.MkdirAll(keptBase, 0755); err != nil {
		t.Fatal(err)
	}
	kept := FromFileStats("octocat/hello", 1, sampleStats())
	if err := kept.Save(keptBase); err != nil {
		t.Fatal(err)
	}

	// Summary whose blob directory is gone
	orphanBase := filepath.Join(dir, "pull_2")
	orphan := FromFileStats("octocat/hello", 2, sampleStats())
	if err := orphan.Save(orphanBase); err != nil {
		t.Fatal(err)
	}

	if err := CleanOrphaned(dir); err != nil {
		t.Fatalf("CleanOrphaned failed: %v", err)
	}

	if !Exists(keptBase) {
		t.Error("summary with live blob directory was removed")
	}
	if Exists(orphanBase) {
		t.Error("orphaned summary was not removed")
	}
}
