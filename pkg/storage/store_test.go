package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"prscraper/pkg/github"
)

func TestStoreReadWrite(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if store.Exists("octocat/hello", "pulls") {
		t.Error("Expected Exists to return false before first write")
	}

	var missing record
	if err := store.ReadJSON("octocat/hello", "pulls", &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	want := record{Name: "x", Count: 3}
	if err := store.WriteJSON("octocat/hello", "pulls", want); err != nil {
		t.Fatalf("Failed to write blob: %v", err)
	}

	if !store.Exists("octocat/hello", "pulls") {
		t.Error("Expected Exists to return true after write")
	}

	var got record
	if err := store.ReadJSON("octocat/hello", "pulls", &got); err != nil {
		t.Fatalf("Failed to read blob: %v", err)
	}
	if got != want {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, want)
	}

	// Repo separator maps to a single directory level.
	path := filepath.Join(store.DataDir(), "octocat_hello", "pulls.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected blob at %s: %v", path, err)
	}
}

func TestStoreNestedBlobNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.WriteJSON("o/r", "pull_42/raw_diff", []int{1, 2}); err != nil {
		t.Fatalf("Failed to write nested blob: %v", err)
	}

	var got []int
	if err := store.ReadJSON("o/r", "pull_42/raw_diff", &got); err != nil {
		t.Fatalf("Failed to read nested blob: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 elements, got %d", len(got))
	}
}

func TestStoreDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Delete("o/r", "missing"); err != nil {
		t.Errorf("Deleting a missing blob should not error: %v", err)
	}

	if err := store.WriteJSON("o/r", "issues", []int{1}); err != nil {
		t.Fatalf("Failed to write blob: %v", err)
	}
	if err := store.Delete("o/r", "issues"); err != nil {
		t.Fatalf("Failed to delete blob: %v", err)
	}
	if store.Exists("o/r", "issues") {
		t.Error("Expected blob to be gone after delete")
	}
}

func TestStoreRepos(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	// Underscores in owner or name must round-trip unchanged.
	written := []string{"alpha/one", "beta/two", "my_org/my_proj"}
	for _, repo := range written {
		if err := store.WriteJSON(repo, "pulls", []int{}); err != nil {
			t.Fatalf("Failed to write blob for %s: %v", repo, err)
		}
	}

	repos, err := store.Repos()
	if err != nil {
		t.Fatalf("Failed to list repos: %v", err)
	}
	if len(repos) != len(written) {
		t.Fatalf("Expected %d repos, got %d: %v", len(written), len(repos), repos)
	}

	found := map[string]bool{}
	for _, r := range repos {
		found[r] = true
	}
	for _, repo := range written {
		if !found[repo] {
			t.Errorf("Repo %s missing from list: %v", repo, repos)
		}
	}
}

func TestMergePulls(t *testing.T) {
	cached := []github.Pull{
		{Number: 1, Title: "old one"},
		{Number: 3, Title: "old three"},
	}
	fresh := []github.Pull{
		{Number: 3, Title: "new three"},
		{Number: 5, Title: "new five"},
	}

	merged := MergePulls(cached, fresh)

	if len(merged) != 3 {
		t.Fatalf("Expected 3 pulls, got %d", len(merged))
	}
	if merged[0].Number != 1 || merged[1].Number != 3 || merged[2].Number != 5 {
		t.Errorf("Expected numbers [1 3 5], got %v", []int{merged[0].Number, merged[1].Number, merged[2].Number})
	}
	if merged[1].Title != "new three" {
		t.Errorf("Expected fresh entry to win on collision, got %q", merged[1].Title)
	}
}

func TestMergePullsEmptyInputs(t *testing.T) {
	if got := MergePulls(nil, nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}

	fresh := []github.Pull{{Number: 7}}
	got := MergePulls(nil, fresh)
	if len(got) != 1 || got[0].Number != 7 {
		t.Errorf("Expected fresh-only result, got %v", got)
	}
}
