package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pet-care-tracker/internal/ports/storage"
)

// Store guarda cada colección como un documento JSONB.
// JSONB normaliza espacios y orden de claves; el contenido decodificado es el mismo.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Load(ctx context.Context, kind storage.Kind) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload::text
		FROM collections
		WHERE kind = $1
	`, string(kind)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Store) Save(ctx context.Context, kind storage.Kind, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (kind, payload, updated_at)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (kind) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`,
		string(kind),
		string(payload),
		s.now().UTC(),
	)
	return err
}

func (s *Store) Close() error { return s.db.Close() }
