package pets

import (
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/ports/storage"
)

// NewRepository crea la colección de mascotas respaldada por el storage port.
func NewRepository(store storage.Store, opts collection.Options) *collection.Collection[Pet] {
	return collection.New(store, storage.KindPets, func(p Pet) string { return p.ID }, opts)
}
