package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-tracker/internal/domain/medications"
	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/recurrence"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/domain/vaccines"
	"pet-care-tracker/internal/ports/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "petcare.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func ptr[T any](v T) *T { return &v }

func TestStore_LoadMissingKind(t *testing.T) {
	s := newTestStore(t)

	raw, err := s.Load(context.Background(), storage.KindPets)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, storage.KindTasks, []byte(`[{"id":"a"}]`)))
	require.NoError(t, s.Save(ctx, storage.KindTasks, []byte(`[]`)))

	raw, err := s.Load(ctx, storage.KindTasks)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))

	other, err := s.Load(ctx, storage.KindPets)
	require.NoError(t, err)
	assert.Nil(t, other, "kinds are independent")
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateUp(db))

	version, dirty, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petcare.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, NewStore(db).Save(ctx, storage.KindReminders, []byte(`[{"id":"r"}]`)))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	raw, err := NewStore(db).Load(ctx, storage.KindReminders)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"r"}]`, string(raw))
}

// Cada entidad vuelve igual campo por campo, y los opcionales ausentes siguen ausentes.
func TestStore_EntityRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	later := at.Add(48 * time.Hour)
	daily := recurrence.RepeatDaily
	interval := int64(86400)

	t.Run("pets", func(t *testing.T) {
		in := []pets.Pet{
			{ID: "p1", Name: "Milo", Species: pets.SpeciesDog, Breed: ptr("Beagle"), BirthDate: ptr(at.AddDate(-3, 0, 0)), Weight: ptr(12.5), IsActive: true, CreatedAt: at, UpdatedAt: later},
			{ID: "p2", Name: "Luna", Species: pets.SpeciesCat, CreatedAt: at, UpdatedAt: at},
		}
		require.NoError(t, storage.SaveList(ctx, s, storage.KindPets, in))
		out, err := storage.LoadList[pets.Pet](ctx, s, storage.KindPets)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Nil(t, out[1].Breed)
		assert.Nil(t, out[1].Weight)
	})

	t.Run("tasks", func(t *testing.T) {
		in := []tasks.Task{
			{
				ID: "t1", Title: "Feed", Description: ptr("wet food"), Category: tasks.CategoryFeeding, Priority: tasks.PriorityHigh,
				PetID: ptr("p1"), DueDate: ptr(at), IsCompleted: true, CompletedAt: ptr(later),
				Recurrence: &recurrence.Rule{Type: recurrence.Daily, Interval: 1}, NextDueDate: ptr(at.AddDate(0, 0, 1)),
				CreatedAt: at, UpdatedAt: later,
			},
			{ID: "t2", Title: "Walk", Category: tasks.CategoryWalking, Priority: tasks.PriorityLow, CreatedAt: at, UpdatedAt: at},
		}
		require.NoError(t, storage.SaveList(ctx, s, storage.KindTasks, in))
		out, err := storage.LoadList[tasks.Task](ctx, s, storage.KindTasks)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Nil(t, out[1].Recurrence)
		assert.Nil(t, out[1].DueDate)
	})

	t.Run("reminders", func(t *testing.T) {
		in := []reminders.Reminder{
			{ID: "r1", Title: "Pills", Message: ptr("half a tablet"), PetID: ptr("p1"), SourceTaskID: ptr("t1"), ScheduledDate: at, IsRepeating: true, RepeatInterval: &interval, RepeatType: &daily, IsEnabled: true, NotificationID: ptr("r1"), CreatedAt: at, UpdatedAt: at},
			{ID: "r2", Title: "Vet", ScheduledDate: later, CreatedAt: at, UpdatedAt: at},
		}
		require.NoError(t, storage.SaveList(ctx, s, storage.KindReminders, in))
		out, err := storage.LoadList[reminders.Reminder](ctx, s, storage.KindReminders)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Nil(t, out[1].RepeatInterval)
	})

	t.Run("vaccines", func(t *testing.T) {
		in := []vaccines.Vaccine{
			{ID: "v1", PetID: "p1", Name: "Rabies", Type: vaccines.TypeRabies, AdministeredDate: at, NextDueDate: ptr(at.AddDate(1, 0, 0)), AdministeredBy: ptr("Dr. Vet"), BatchNumber: ptr("B-12"), IsRequired: true, IsCompleted: true, CreatedAt: at, UpdatedAt: at},
			{ID: "v2", PetID: "p2", Name: "Other", Type: vaccines.TypeOther, AdministeredDate: at, CreatedAt: at, UpdatedAt: at},
		}
		require.NoError(t, storage.SaveList(ctx, s, storage.KindVaccines, in))
		out, err := storage.LoadList[vaccines.Vaccine](ctx, s, storage.KindVaccines)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("medications", func(t *testing.T) {
		in := []medications.Medication{
			{ID: "m1", PetID: "p1", Name: "Carprofen", Dosage: "25mg", Frequency: recurrence.TwiceDaily, StartDate: at, EndDate: ptr(later), Instructions: ptr("with food"), IsActive: true, NextDoseDate: ptr(at.Add(12 * time.Hour)), LastDoseDate: ptr(at), CreatedAt: at, UpdatedAt: at},
			{ID: "m2", PetID: "p2", Name: "Drops", Dosage: "2", Frequency: recurrence.AsNeeded, StartDate: at, CreatedAt: at, UpdatedAt: at},
		}
		require.NoError(t, storage.SaveList(ctx, s, storage.KindMedications, in))
		out, err := storage.LoadList[medications.Medication](ctx, s, storage.KindMedications)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}
