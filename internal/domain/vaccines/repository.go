package vaccines

import (
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/ports/storage"
)

func NewRepository(store storage.Store, opts collection.Options) *collection.Collection[Vaccine] {
	return collection.New(store, storage.KindVaccines, func(v Vaccine) string { return v.ID }, opts)
}
