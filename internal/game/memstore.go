package game

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
)

// MemStore keeps game documents in memory with the same versioning
// semantics as PGStore. Used in tests and local development.
type MemStore struct {
	mu    sync.RWMutex
	games map[string]memEntry
}

type memEntry struct {
	doc     []byte
	version uint64
}

func NewMemStore() *MemStore {
	return &MemStore{games: make(map[string]memEntry)}
}

func (s *MemStore) Create(_ context.Context, doc *domain.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[doc.ID]; ok {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("game already exists: game=%s", doc.ID))
	}

	s.games[doc.ID] = memEntry{doc: b, version: 1}
	return nil
}

func (s *MemStore) Get(_ context.Context, gameID string) (*domain.Document, uint64, error) {
	s.mu.RLock()
	e, ok := s.games[gameID]
	s.mu.RUnlock()

	if !ok {
		return nil, 0, errors.New(errors.CodeNotFound,
			errors.WithMessagef("game not found: game=%s", gameID))
	}

	var doc domain.Document
	if err := json.Unmarshal(e.doc, &doc); err != nil {
		return nil, 0, err
	}

	return &doc, e.version, nil
}

func (s *MemStore) Save(_ context.Context, doc *domain.Document, version uint64) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.games[doc.ID]
	if !ok || e.version != version {
		return errors.New(errors.CodeAborted,
			errors.WithMessagef("game was updated concurrently: game=%s", doc.ID))
	}

	s.games[doc.ID] = memEntry{doc: b, version: version + 1}
	return nil
}
