package store

import (
	"context"
	"sync"

	"github.com/serroba/shortlink-web/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[shortener.ShortID]shortener.ShortLink
	byURL map[shortener.URLHash]shortener.ShortID
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[shortener.ShortID]shortener.ShortLink),
		byURL: make(map[shortener.URLHash]shortener.ShortID),
	}
}

func (m *MemoryStore) FindByURL(_ context.Context, url string) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byURL[shortener.HashURL(url)]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	link := m.links[id]

	return &link, nil
}

func (m *MemoryStore) FindByShortID(_ context.Context, id shortener.ShortID) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &link, nil
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.ShortLink) (*shortener.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := link.URLHash
	if hash == "" {
		hash = shortener.HashURL(link.OriginalURL)
	}

	if id, ok := m.byURL[hash]; ok {
		existing := m.links[id]

		return &existing, nil
	}

	if _, taken := m.links[link.ShortID]; taken {
		return nil, shortener.ErrDuplicateID
	}

	stored := *link
	stored.URLHash = hash
	m.links[stored.ShortID] = stored
	m.byURL[hash] = stored.ShortID

	return &stored, nil
}

// Len reports how many links are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.links)
}

var _ shortener.Repository = (*MemoryStore)(nil)
