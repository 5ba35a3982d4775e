package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind identifica una colección persistida.
type Kind string

const (
	KindPets        Kind = "pets"
	KindTasks       Kind = "tasks"
	KindReminders   Kind = "reminders"
	KindVaccines    Kind = "vaccines"
	KindMedications Kind = "medications"
)

// Store es el puerto de persistencia: un documento por kind.
// Load devuelve (nil, nil) si el kind nunca se guardó.
type Store interface {
	Load(ctx context.Context, kind Kind) ([]byte, error)
	Save(ctx context.Context, kind Kind, payload []byte) error
}

// LoadList decodifica la colección completa de un kind.
func LoadList[T any](ctx context.Context, s Store, kind Kind) ([]T, error) {
	raw, err := s.Load(ctx, kind)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// SaveList codifica y guarda la colección completa de un kind.
func SaveList[T any](ctx context.Context, s Store, kind Kind, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	return s.Save(ctx, kind, b)
}
