package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "prscraper"
	keyringPrefix  = "github_tokens_"
)

// KeyringStore implements TokenStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based token store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	err := keyring.Set(keyringService, testKey, "test")
	if err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a token set to the system keychain
func (k *KeyringStore) Store(set *TokenSet) error {
	if set == nil || set.Label == "" {
		return ErrInvalidTokens
	}

	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal token set: %w", err)
	}

	key := keyringPrefix + set.Label
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Retrieve gets a token set from the system keychain
func (k *KeyringStore) Retrieve(label string) (*TokenSet, error) {
	if label == "" {
		return nil, ErrInvalidTokens
	}

	key := keyringPrefix + label
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrTokensNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var set TokenSet
	if err := json.Unmarshal([]byte(data), &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token set: %w", err)
	}

	return &set, nil
}

// List returns all stored token sets from the keychain
func (k *KeyringStore) List() ([]*TokenSet, error) {
	// go-keyring cannot enumerate keys, so listing falls through to the
	// other stores.
	return []*TokenSet{}, nil
}

// Delete removes a token set from the system keychain
func (k *KeyringStore) Delete(label string) error {
	if label == "" {
		return ErrInvalidTokens
	}

	key := keyringPrefix + label
	err := keyring.Delete(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrTokensNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return nil
}

// Exists checks if a token set exists in the keychain
func (k *KeyringStore) Exists(label string) bool {
	if label == "" {
		return false
	}

	key := keyringPrefix + label
	_, err := keyring.Get(keyringService, key)
	return err == nil
}
