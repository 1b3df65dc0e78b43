package session

import (
	"sync"

	"github.com/google/uuid"
)

// TokenStore holds the bearer credential of each diagnostic session. It is
// the only place the service reads credentials from.
type TokenStore interface {
	Get(id uuid.UUID) (string, bool)
	Set(id uuid.UUID, token string)
	Clear(id uuid.UUID)
}

type memoryTokens struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]string
}

func NewMemoryTokenStore() TokenStore {
	return &memoryTokens{tokens: make(map[uuid.UUID]string)}
}

func (m *memoryTokens) Get(id uuid.UUID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[id]
	return t, ok
}

func (m *memoryTokens) Set(id uuid.UUID, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[id] = token
}

func (m *memoryTokens) Clear(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
}
