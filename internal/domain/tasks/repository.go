package tasks

import (
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/ports/storage"
)

func NewRepository(store storage.Store, opts collection.Options) *collection.Collection[Task] {
	return collection.New(store, storage.KindTasks, func(t Task) string { return t.ID }, opts)
}
