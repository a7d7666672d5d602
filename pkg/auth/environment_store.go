package auth

import (
	"os"
	"strings"
	"time"
)

// EnvironmentStore implements TokenStore using environment variables.
// PRSCRAPER_TOKENS carries a comma-separated token list.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(set *TokenSet) error {
	return ErrStoreUnavailable
}

// Retrieve gets tokens from environment variables
func (e *EnvironmentStore) Retrieve(label string) (*TokenSet, error) {
	tokens := splitTokens(os.Getenv("PRSCRAPER_TOKENS"))
	if len(tokens) == 0 {
		return nil, ErrTokensNotFound
	}

	// Environment variables carry no label, so default or echo the request.
	if label == "" {
		label = "default"
	}

	return &TokenSet{
		Label:        label,
		Tokens:       tokens,
		LastModified: time.Now(),
	}, nil
}

// List returns a single token set if environment variables are set
func (e *EnvironmentStore) List() ([]*TokenSet, error) {
	set, err := e.Retrieve("")
	if err != nil {
		return []*TokenSet{}, nil
	}
	return []*TokenSet{set}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment tokens exist
func (e *EnvironmentStore) Exists(label string) bool {
	return len(splitTokens(os.Getenv("PRSCRAPER_TOKENS"))) > 0
}

func splitTokens(raw string) []string {
	var tokens []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
