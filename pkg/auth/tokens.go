package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// TokenSet is a named group of GitHub personal access tokens that scrape
// runs draw their credential pool from.
type TokenSet struct {
	Label        string    `json:"label"`
	Tokens       []string  `json:"tokens"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for storing and retrieving token sets
type TokenStore interface {
	// Store saves a token set
	Store(set *TokenSet) error

	// Retrieve gets the token set with the given label
	Retrieve(label string) (*TokenSet, error)

	// List returns all stored token sets
	List() ([]*TokenSet, error)

	// Delete removes the token set with the given label
	Delete(label string) error

	// Exists checks if a token set exists for a label
	Exists(label string) bool
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []TokenStore
}

// NewManager creates a new token manager with appropriate storage backends
func NewManager() (*Manager, error) {
	var stores []TokenStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a token set using the first available store
func (m *Manager) Store(set *TokenSet) error {
	if set.Label == "" {
		return errors.New("label is required")
	}
	if len(set.Tokens) == 0 {
		return errors.New("at least one token is required")
	}

	set.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(set); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store tokens: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets a token set from the first store that has it
func (m *Manager) Retrieve(label string) (*TokenSet, error) {
	for _, store := range m.stores {
		if set, err := store.Retrieve(label); err == nil && set != nil {
			return set, nil
		}
	}
	return nil, fmt.Errorf("tokens not found for label: %s", label)
}

// RetrieveDefault gets the default token set or the first available one
func (m *Manager) RetrieveDefault() (*TokenSet, error) {
	// Environment tokens take priority so CI runs override stored sets.
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if set, err := envStore.Retrieve(""); err == nil && set != nil {
			return set, nil
		}
	}

	sets, err := m.List()
	if err == nil && len(sets) > 0 {
		return sets[0], nil
	}

	return nil, errors.New("no tokens found")
}

// List returns all stored token sets from all stores
func (m *Manager) List() ([]*TokenSet, error) {
	setMap := make(map[string]*TokenSet)

	for _, store := range m.stores {
		sets, err := store.List()
		if err != nil {
			continue
		}
		for _, set := range sets {
			// Use the most recently modified version
			if existing, ok := setMap[set.Label]; !ok || set.LastModified.After(existing.LastModified) {
				setMap[set.Label] = set
			}
		}
	}

	var result []*TokenSet
	for _, set := range setMap {
		result = append(result, set)
	}

	return result, nil
}

// Delete removes a token set from all stores
func (m *Manager) Delete(label string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(label); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete tokens: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("tokens not found for label: %s", label)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "prscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "prscraper")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "prscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "prscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeTokens returns a copy of the token set with the secrets masked
func SanitizeTokens(set *TokenSet) *TokenSet {
	if set == nil {
		return nil
	}

	masked := make([]string, len(set.Tokens))
	for i, token := range set.Tokens {
		masked[i] = maskString(token)
	}

	return &TokenSet{
		Label:        set.Label,
		Tokens:       masked,
		LastModified: set.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokensNotFound   = errors.New("tokens not found")
	ErrInvalidTokens    = errors.New("invalid tokens")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
