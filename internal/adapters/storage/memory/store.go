package memory

import (
	"context"
	"errors"
	"sync"

	"pet-care-tracker/internal/ports/storage"
)

var (
	ErrClosed = errors.New("store closed")
)

// Store implementa storage.Store en memoria. Sirve para dev y tests;
// no sobrevive al proceso.
type Store struct {
	mu     sync.RWMutex
	byKind map[storage.Kind][]byte
	closed bool
}

func NewStore() *Store {
	return &Store{
		byKind: make(map[storage.Kind][]byte),
	}
}

func (s *Store) Load(ctx context.Context, kind storage.Kind) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	raw, ok := s.byKind[kind]
	if !ok {
		return nil, nil
	}
	// copia: el llamador puede retener el slice
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *Store) Save(ctx context.Context, kind storage.Kind, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.byKind[kind] = buf
	return nil
}

// Close hace que las siguientes llamadas fallen; útil para simular un storage caído.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
