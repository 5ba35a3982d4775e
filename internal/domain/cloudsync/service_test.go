package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	notifymem "pet-care-tracker/internal/adapters/notify/memory"
	"pet-care-tracker/internal/adapters/storage/memory"
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/ports/cloudsync"
	"pet-care-tracker/internal/ports/storage"
)

type fakeRemote struct {
	snap    cloudsync.Snapshot
	pulled  int
	pushed  []cloudsync.Snapshot
	pullErr error
	pushErr error
}

func (f *fakeRemote) PullAll(ctx context.Context) (cloudsync.Snapshot, error) {
	f.pulled++
	return f.snap, f.pullErr
}

func (f *fakeRemote) PushAll(ctx context.Context, s cloudsync.Snapshot) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, s)
	return nil
}

type fixture struct {
	svc       *Service
	remote    *fakeRemote
	pets      *pets.Service
	tasks     *tasks.Service
	reminders *reminders.Service
	notifier  *notifymem.Notifier
}

var now = time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	store := memory.NewStore()
	f := &fixture{remote: &fakeRemote{}, notifier: notifymem.NewNotifier()}
	f.pets = pets.NewService(pets.NewRepository(store, collection.Options{}), nil)
	f.tasks = tasks.NewService(tasks.NewRepository(store, collection.Options{}), nil)
	f.reminders = reminders.NewService(reminders.NewRepository(store, collection.Options{}), f.notifier, nil, nil)
	f.svc = NewService(f.remote, f.pets, f.tasks, f.reminders, nil, nil)
	f.svc.now = func() time.Time { return now }
	return f
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestPull_MergesValidAndRejectsInvalid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	local, err := f.pets.Create(ctx, pets.CreateInput{Name: "Milo", Species: pets.SpeciesDog})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	renamed := local
	renamed.Name = "Milo II"
	weight := -2.0

	f.remote.snap = cloudsync.Snapshot{
		Version: cloudsync.SnapshotVersion,
		Collections: map[storage.Kind]json.RawMessage{
			storage.KindPets: raw(t, []pets.Pet{
				renamed,
				{ID: "p2", Name: "Luna", Species: pets.SpeciesCat, IsActive: true, CreatedAt: now, UpdatedAt: now},
				{ID: "bad", Name: "Ghost", Species: pets.SpeciesCat, Weight: &weight},
			}),
			storage.KindTasks: raw(t, []tasks.Task{
				{ID: "t1", Title: "Walk", Category: tasks.CategoryWalking, Priority: tasks.PriorityLow, CreatedAt: now, UpdatedAt: now},
				{ID: "", Title: "no id", Category: tasks.CategoryOther, Priority: tasks.PriorityLow},
			}),
			storage.KindReminders: raw(t, []reminders.Reminder{
				// el servicio de recordatorios usa el reloj real
				{ID: "r1", Title: "Pills", ScheduledDate: time.Now().Add(time.Hour), IsEnabled: true, CreatedAt: now, UpdatedAt: now},
			}),
		},
	}

	rep, err := f.svc.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull returned error: %v", err)
	}
	if rep.Pets != 2 || rep.Tasks != 1 || rep.Reminders != 1 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	if len(rep.Rejected) != 2 {
		t.Fatalf("expected 2 rejected records, got %+v", rep.Rejected)
	}
	if rep.Rejected[0] != (Rejected{Kind: storage.KindPets, ID: "bad"}) {
		t.Fatalf("unexpected first rejection: %+v", rep.Rejected[0])
	}
	for _, e := range rep.Errors() {
		var se *errs.SyncError
		if !errors.As(e, &se) || se.Kind != errs.SyncInvalidRecord {
			t.Fatalf("expected invalid_record sync error, got %v", e)
		}
	}

	got, err := f.pets.GetByID(local.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Name != "Milo II" {
		t.Fatalf("expected remote write to win, got %q", got.Name)
	}
	if len(f.pets.List()) != 2 {
		t.Fatalf("expected 2 pets after merge, got %d", len(f.pets.List()))
	}
	if _, ok := f.notifier.Get("r1"); !ok {
		t.Fatalf("expected merged reminder to be scheduled")
	}
}

func TestPull_OlderRemoteCopiesAreReportedStale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, tasks.CreateInput{Title: "Feed"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	rem, err := f.reminders.Create(ctx, reminders.CreateInput{Title: "Pills", ScheduledDate: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	oldTask := task
	oldTask.Title = "Feed (old copy)"
	oldTask.UpdatedAt = task.UpdatedAt.Add(-2 * time.Hour)
	oldRem := rem
	oldRem.Title = "Pills (old copy)"
	oldRem.IsEnabled = false
	oldRem.UpdatedAt = rem.UpdatedAt.Add(-time.Minute)

	f.remote.snap = cloudsync.Snapshot{
		Version: cloudsync.SnapshotVersion,
		Collections: map[storage.Kind]json.RawMessage{
			storage.KindTasks:     raw(t, []tasks.Task{oldTask}),
			storage.KindReminders: raw(t, []reminders.Reminder{oldRem}),
		},
	}

	rep, err := f.svc.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull returned error: %v", err)
	}
	if rep.Tasks != 0 || rep.Reminders != 0 || len(rep.Rejected) != 0 {
		t.Fatalf("expected nothing applied or rejected, got %+v", rep)
	}
	if len(rep.Stale) != 2 || rep.Stale[0] != (Rejected{Kind: storage.KindTasks, ID: task.ID}) {
		t.Fatalf("unexpected stale list: %+v", rep.Stale)
	}

	gotTask, _ := f.tasks.GetByID(task.ID)
	if gotTask.Title != "Feed" {
		t.Fatalf("expected local task to win, got %q", gotTask.Title)
	}
	gotRem, _ := f.reminders.GetByID(rem.ID)
	if gotRem.Title != "Pills" || !gotRem.IsEnabled {
		t.Fatalf("expected local reminder to win, got %+v", gotRem)
	}
	if _, ok := f.notifier.Get(*rem.NotificationID); !ok {
		t.Fatalf("expected local reminder to stay scheduled")
	}
}

func TestPull_BrokenDocumentMergesNothing(t *testing.T) {
	f := newFixture()

	f.remote.snap = cloudsync.Snapshot{
		Version: cloudsync.SnapshotVersion,
		Collections: map[storage.Kind]json.RawMessage{
			storage.KindPets:  raw(t, []pets.Pet{{ID: "p1", Name: "Milo", Species: pets.SpeciesDog}}),
			storage.KindTasks: json.RawMessage(`{"not":"a list"}`),
		},
	}

	_, err := f.svc.Pull(context.Background())
	var se *errs.SyncError
	if !errors.As(err, &se) || se.Kind != errs.SyncFailed {
		t.Fatalf("expected failed sync error, got %v", err)
	}
	if len(f.pets.List()) != 0 {
		t.Fatalf("expected no pets merged")
	}
}

func TestPull_RemoteErrorsAreSyncErrors(t *testing.T) {
	f := newFixture()
	f.remote.pullErr = errors.New("connection refused")

	_, err := f.svc.Pull(context.Background())
	var se *errs.SyncError
	if !errors.As(err, &se) || se.Kind != errs.SyncUnavailable {
		t.Fatalf("expected unavailable sync error, got %v", err)
	}

	f.remote.pullErr = &errs.SyncError{Kind: errs.SyncFailed, Err: errors.New("bad key")}
	_, err = f.svc.Pull(context.Background())
	if !errors.As(err, &se) || se.Kind != errs.SyncFailed {
		t.Fatalf("expected adapter sync error to pass through, got %v", err)
	}
}

func TestPull_NewerVersionIsRefused(t *testing.T) {
	f := newFixture()
	f.remote.snap = cloudsync.Snapshot{
		Version:     cloudsync.SnapshotVersion + 1,
		Collections: map[storage.Kind]json.RawMessage{storage.KindPets: json.RawMessage(`[]`)},
	}
	if _, err := f.svc.Pull(context.Background()); !errs.IsSync(err) {
		t.Fatalf("expected sync error, got %v", err)
	}
}

func TestPull_EmptyRemote(t *testing.T) {
	f := newFixture()

	rep, err := f.svc.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull returned error: %v", err)
	}
	if rep.Pets != 0 || len(rep.Rejected) != 0 {
		t.Fatalf("expected empty report, got %+v", rep)
	}
}

func TestPush_ThenPullRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, _ := f.pets.Create(ctx, pets.CreateInput{Name: "Milo", Species: pets.SpeciesDog})
	due := now.Add(2 * time.Hour)
	if _, err := f.tasks.Create(ctx, tasks.CreateInput{Title: "Feed", PetID: &p.ID, DueDate: &due}); err != nil {
		t.Fatalf("Create task returned error: %v", err)
	}

	rep, err := f.svc.Push(ctx)
	if err != nil {
		t.Fatalf("Push returned error: %v", err)
	}
	if rep.Pets != 1 || rep.Tasks != 1 || rep.Reminders != 0 {
		t.Fatalf("unexpected push counts: %+v", rep)
	}
	if len(f.remote.pushed) != 1 {
		t.Fatalf("expected one push")
	}
	pushed := f.remote.pushed[0]
	if pushed.Version != cloudsync.SnapshotVersion || !pushed.ExportedAt.Equal(now) {
		t.Fatalf("unexpected snapshot header: %+v", pushed)
	}
	if string(pushed.Collections[storage.KindReminders]) != "[]" {
		t.Fatalf("expected empty reminders list, got %s", pushed.Collections[storage.KindReminders])
	}

	other := newFixture()
	other.remote.snap = pushed
	rep, err = other.svc.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull returned error: %v", err)
	}
	if rep.Pets != 1 || rep.Tasks != 1 {
		t.Fatalf("unexpected pull counts: %+v", rep)
	}
	got, err := other.pets.GetByID(p.ID)
	if err != nil || got.Name != "Milo" {
		t.Fatalf("expected pet to travel, got %+v err=%v", got, err)
	}
}

func TestPush_RemoteFailure(t *testing.T) {
	f := newFixture()
	f.remote.pushErr = errors.New("timeout")

	_, err := f.svc.Push(context.Background())
	var se *errs.SyncError
	if !errors.As(err, &se) || se.Kind != errs.SyncFailed {
		t.Fatalf("expected failed sync error, got %v", err)
	}
}
