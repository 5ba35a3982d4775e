package cloudsync

import (
	"context"
	"encoding/json"
	"time"

	"pet-care-tracker/internal/ports/storage"
)

// SnapshotVersion es la versión del formato que se sube a la nube.
const SnapshotVersion = 1

// Snapshot es la foto remota: un documento JSON por kind, con el mismo
// formato que usa el puerto de persistencia.
type Snapshot struct {
	Version     int                              `json:"version"`
	ExportedAt  time.Time                        `json:"exported_at"`
	Collections map[storage.Kind]json.RawMessage `json:"collections"`
}

// Empty indica que no hay nada remoto para traer.
func (s Snapshot) Empty() bool { return len(s.Collections) == 0 }

// Syncer es el colaborador de nube. Los errores deberían ser *errs.SyncError;
// el servicio envuelve cualquier otro como unavailable.
type Syncer interface {
	PullAll(ctx context.Context) (Snapshot, error)
	PushAll(ctx context.Context, s Snapshot) error
}
