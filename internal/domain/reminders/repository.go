package reminders

import (
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/ports/storage"
)

func NewRepository(store storage.Store, opts collection.Options) *collection.Collection[Reminder] {
	return collection.New(store, storage.KindReminders, func(r Reminder) string { return r.ID }, opts)
}
