package auth

import (
	"sync"
)

// MockStore implements TokenStore for testing purposes
type MockStore struct {
	sets map[string]*TokenSet
	mu   sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock token store
func NewMockStore() *MockStore {
	return &MockStore{
		sets: make(map[string]*TokenSet),
	}
}

// Store saves a token set to the mock store
func (m *MockStore) Store(set *TokenSet) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if set == nil || set.Label == "" {
		return ErrInvalidTokens
	}

	// Create a copy to avoid external modifications
	setCopy := *set
	m.sets[set.Label] = &setCopy

	return nil
}

// Retrieve gets a token set from the mock store
func (m *MockStore) Retrieve(label string) (*TokenSet, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if label == "" {
		return nil, ErrInvalidTokens
	}

	set, exists := m.sets[label]
	if !exists {
		return nil, ErrTokensNotFound
	}

	setCopy := *set
	return &setCopy, nil
}

// List returns all stored token sets from the mock store
func (m *MockStore) List() ([]*TokenSet, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var sets []*TokenSet
	for _, set := range m.sets {
		setCopy := *set
		sets = append(sets, &setCopy)
	}

	return sets, nil
}

// Delete removes a token set from the mock store
func (m *MockStore) Delete(label string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if label == "" {
		return ErrInvalidTokens
	}

	if _, exists := m.sets[label]; !exists {
		return ErrTokensNotFound
	}

	delete(m.sets, label)
	return nil
}

// Exists checks if a token set exists in the mock store
func (m *MockStore) Exists(label string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.sets[label]
	return exists
}

// Count returns the number of token sets in the mock store (useful for testing)
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sets)
}

// NewMockManager creates a Manager with a mock store for testing
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	manager := &Manager{
		stores: []TokenStore{mockStore},
	}
	return manager, mockStore
}

// NewMockManagerWithStores creates a Manager with multiple stores for testing
func NewMockManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{
		stores: stores,
	}
}
