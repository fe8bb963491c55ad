package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/domwatch/dominance-bot/internal/model"
)

// MemoryStore implements Store with in-memory documents. Used for testing
// and for running without persistence. Documents are kept as marshaled JSON
// so loads return independent copies, like the real backends.
type MemoryStore struct {
	mu       sync.RWMutex
	book     []byte
	settings []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadBook(_ context.Context) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book := model.NewBook()
	if s.book != nil {
		if err := json.Unmarshal(s.book, book); err != nil {
			return nil, err
		}
	}
	if book.Users == nil {
		book.Users = make(map[int64]*model.User)
	}
	return book, nil
}

func (s *MemoryStore) SaveBook(_ context.Context, book *model.Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.book = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadSettings(_ context.Context) (*model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := &model.Settings{}
	if s.settings != nil {
		if err := json.Unmarshal(s.settings, settings); err != nil {
			return nil, err
		}
	}
	return settings, nil
}

func (s *MemoryStore) SaveSettings(_ context.Context, settings *model.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = data
	s.mu.Unlock()
	return nil
}
