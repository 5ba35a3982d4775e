package medications

import (
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/ports/storage"
)

func NewRepository(store storage.Store, opts collection.Options) *collection.Collection[Medication] {
	return collection.New(store, storage.KindMedications, func(m Medication) string { return m.ID }, opts)
}
