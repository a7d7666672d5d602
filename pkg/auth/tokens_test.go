package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	set := &TokenSet{
		Label:        "default",
		Tokens:       []string{"ghp_abcdef1234567890", "ghp_zyxwvu0987654321"},
		LastModified: time.Now(),
	}

	err := manager.Store(set)
	if err != nil {
		t.Errorf("Failed to store token set: %v", err)
	}

	retrieved, err := manager.Retrieve("default")
	if err != nil {
		t.Errorf("Failed to retrieve token set: %v", err)
	}

	if retrieved.Label != set.Label {
		t.Errorf("Label mismatch: got %s, want %s", retrieved.Label, set.Label)
	}
	if len(retrieved.Tokens) != 2 {
		t.Errorf("Expected 2 tokens, got %d", len(retrieved.Tokens))
	}

	sets, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list token sets: %v", err)
	}
	if len(sets) == 0 {
		t.Error("Expected at least one token set in list")
	}

	sanitized := SanitizeTokens(set)
	if sanitized.Tokens[0] == set.Tokens[0] {
		t.Error("Tokens should be masked")
	}
	if sanitized.Label != set.Label {
		t.Error("Label should not be masked")
	}

	err = manager.Delete("default")
	if err != nil {
		t.Errorf("Failed to delete token set: %v", err)
	}

	_, err = manager.Retrieve("default")
	if err == nil {
		t.Error("Expected error retrieving deleted token set")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 token sets after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsInvalidSets(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&TokenSet{Tokens: []string{"t"}}); err == nil {
		t.Error("Expected error storing set without label")
	}
	if err := manager.Store(&TokenSet{Label: "empty"}); err == nil {
		t.Error("Expected error storing set without tokens")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_tokens.enc")

	os.Setenv("PRSCRAPER_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("PRSCRAPER_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	set := &TokenSet{
		Label:  "encrypted_set",
		Tokens: []string{"ghp_secret_token_value"},
	}

	if err := store.Store(set); err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_set")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.Tokens[0] != set.Tokens[0] {
		t.Error("Token mismatch after encryption round trip")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if contains(fileContent, []byte("ghp_secret_token_value")) {
		t.Error("File contains plaintext token")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("PRSCRAPER_TOKENS", "ghp_env_one, ghp_env_two ,,")
	defer os.Unsetenv("PRSCRAPER_TOKENS")

	store := NewEnvironmentStore()

	set, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if len(set.Tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(set.Tokens))
	}
	if set.Tokens[0] != "ghp_env_one" || set.Tokens[1] != "ghp_env_two" {
		t.Errorf("Unexpected tokens: %v", set.Tokens)
	}
	if set.Label != "default" {
		t.Errorf("Expected default label, got %s", set.Label)
	}

	if err := store.Store(&TokenSet{}); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestEnvironmentStoreEmpty(t *testing.T) {
	os.Unsetenv("PRSCRAPER_TOKENS")

	store := NewEnvironmentStore()
	if _, err := store.Retrieve(""); err != ErrTokensNotFound {
		t.Errorf("Expected ErrTokensNotFound, got %v", err)
	}
	if store.Exists("") {
		t.Error("Expected Exists to be false without environment tokens")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	os.Setenv("PRSCRAPER_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("PRSCRAPER_PASSPHRASE")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "tokens.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	set := &TokenSet{
		Label:        "ci",
		Tokens:       []string{"ghp_ci_token_a", "ghp_ci_token_b"},
		LastModified: time.Now(),
	}

	if err := manager.Store(set); err != nil {
		t.Fatalf("Failed to store token set: %v", err)
	}

	sets, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list token sets: %v", err)
	}
	if len(sets) != 1 {
		t.Errorf("Expected 1 token set in list, got %d", len(sets))
	}

	retrieved, err := manager.Retrieve("ci")
	if err != nil {
		t.Fatalf("Failed to retrieve token set: %v", err)
	}
	if retrieved.Label != set.Label {
		t.Errorf("Label mismatch: got %s, want %s", retrieved.Label, set.Label)
	}
	if len(retrieved.Tokens) != 2 {
		t.Errorf("Expected 2 tokens, got %d", len(retrieved.Tokens))
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	sets, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("Expected 0 token sets, got %d", len(sets))
	}

	set := &TokenSet{
		Label:  "mock",
		Tokens: []string{"ghp_mock"},
	}

	if err := store.Store(set); err != nil {
		t.Errorf("Failed to store token set: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Expected 1 token set, got %d", store.Count())
	}
	if !store.Exists("mock") {
		t.Error("Token set should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	if _, err := store.List(); err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}

func contains(data []byte, substr []byte) bool {
	for i := 0; i <= len(data)-len(substr); i++ {
		if string(data[i:i+len(substr)]) == string(substr) {
			return true
		}
	}
	return false
}
