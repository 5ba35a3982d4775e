package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-tracker/internal/adapters/storage/memory"
	"pet-care-tracker/internal/domain/calendar"
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/platform/metrics"
)

// miércoles
var now = time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type fakeSources struct {
	pets      []pets.Pet
	tasks     []tasks.Task
	reminders []reminders.Reminder
}

func (f *fakeSources) List() []pets.Pet { return f.pets }

type taskList []tasks.Task

func (l taskList) All() []tasks.Task { return l }

type reminderList []reminders.Reminder

func (l reminderList) All() []reminders.Reminder { return l }

func newTestService(p []pets.Pet, t []tasks.Task, r []reminders.Reminder) *Service {
	svc := NewService(&fakeSources{pets: p}, taskList(t), reminderList(r), Options{})
	svc.now = func() time.Time { return now }
	return svc
}

func task(id string, due time.Time, completed bool) tasks.Task {
	t := tasks.Task{ID: id, Title: id, Category: tasks.CategoryOther, Priority: tasks.PriorityMedium, DueDate: ptr(due), CreatedAt: due.Add(-time.Hour)}
	if completed {
		t.IsCompleted = true
		t.CompletedAt = ptr(due)
	}
	return t
}

func TestWeekly_WindowBoundaries(t *testing.T) {
	week := calendar.Week(now)
	sundayLate := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	nextMonday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	snap := Snapshot{
		Now: now,
		Tasks: []tasks.Task{
			task("start", week.Start, true),
			task("end", sundayLate, false),
			task("next", nextMonday, false),
			task("prev", week.Start.Add(-time.Second), false),
			task("overdue", now.Add(-time.Hour), false),
			{ID: "nodate", Title: "x"},
		},
		Reminders: []reminders.Reminder{
			{ID: "r1", IsEnabled: true, ScheduledDate: now.AddDate(0, 2, 0)},
			{ID: "r2", IsEnabled: false},
		},
	}

	st := Weekly(snap, now)
	assert.Equal(t, 3, st.TotalTasks, "start, sunday 23:59:59 and overdue are inside the week")
	assert.Equal(t, 1, st.CompletedTasks)
	assert.Equal(t, 1, st.OverdueTasks)
	assert.Equal(t, 1, st.ActiveReminders, "active reminders are not window filtered")
	assert.Equal(t, week, st.Period)
}

func TestMonthly_ExcludesOtherMonths(t *testing.T) {
	snap := Snapshot{
		Now: now,
		Tasks: []tasks.Task{
			task("first", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true),
			task("last", time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC), false),
			task("july", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), false),
			task("may", time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC), false),
		},
	}
	st := Monthly(snap, now)
	assert.Equal(t, 2, st.TotalTasks)
	assert.Equal(t, 1, st.CompletedTasks)
	assert.Zero(t, st.OverdueTasks)
}

func TestStreak(t *testing.T) {
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	snap := Snapshot{Now: now, Tasks: []tasks.Task{
		task("t0", day(0), true),
		task("t1", day(-1), true),
		task("t2", day(-2), true),
		task("t3", day(-3), false),
		task("t4", day(-4), true),
	}}
	assert.Equal(t, 3, Streak(snap, 0))

	// hoy sin completadas corta la racha aunque ayer tenga
	snap.Tasks[0].IsCompleted = false
	snap.Tasks[0].CompletedAt = nil
	assert.Zero(t, Streak(snap, 0))

	// el límite corta recorridos largos
	long := Snapshot{Now: now}
	for i := 0; i < 50; i++ {
		long.Tasks = append(long.Tasks, task("x", day(-i), true))
	}
	assert.Equal(t, 10, Streak(long, 10))
	assert.Equal(t, 50, Streak(long, 0))
}

func TestPerPet(t *testing.T) {
	created := now.Add(-10 * time.Hour)
	pet := pets.Pet{ID: "p1", Name: "Milo"}
	other := pets.Pet{ID: "p2", Name: "Luna"}

	mk := func(id string, cat tasks.Category, completedAfter time.Duration) tasks.Task {
		t := tasks.Task{ID: id, PetID: ptr("p1"), Category: cat, CreatedAt: created}
		if completedAfter > 0 {
			t.IsCompleted = true
			t.CompletedAt = ptr(created.Add(completedAfter))
		}
		return t
	}

	snap := Snapshot{
		Now:  now,
		Pets: []pets.Pet{pet, other},
		Tasks: []tasks.Task{
			mk("a", tasks.CategoryWalking, 2*time.Hour),
			mk("b", tasks.CategoryFeeding, 4*time.Hour),
			mk("c", tasks.CategoryFeeding, 0),
			mk("d", tasks.CategoryWalking, 0),
			{ID: "ghost", PetID: ptr("deleted-pet"), Category: tasks.CategoryVet},
		},
	}

	stats := PerPet(snap)
	require.Len(t, stats, 2)

	milo := stats[0]
	assert.Equal(t, "Milo", milo.PetName)
	assert.Equal(t, 4, milo.TotalTasks)
	assert.Equal(t, 2, milo.CompletedTasks)
	assert.Equal(t, 2, milo.PendingTasks)
	require.NotNil(t, milo.AverageCompletionSeconds)
	assert.InDelta(t, (3 * time.Hour).Seconds(), *milo.AverageCompletionSeconds, 0.001)
	require.NotNil(t, milo.FavoriteCategory)
	assert.Equal(t, tasks.CategoryWalking, *milo.FavoriteCategory, "ties go to the first category seen")

	luna := stats[1]
	assert.Zero(t, luna.TotalTasks)
	assert.Nil(t, luna.AverageCompletionSeconds)
	assert.Nil(t, luna.FavoriteCategory)
}

func TestCategoriesAndProductiveDays(t *testing.T) {
	monday := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	snap := Snapshot{Now: now, Tasks: []tasks.Task{
		{ID: "a", Category: tasks.CategoryFeeding, IsCompleted: true, CompletedAt: ptr(monday)},
		{ID: "b", Category: tasks.CategoryFeeding, IsCompleted: true, CompletedAt: ptr(monday.AddDate(0, 0, 7))},
		{ID: "c", Category: tasks.CategoryVet, IsCompleted: true, CompletedAt: ptr(now)},
		{ID: "d", Category: tasks.CategoryVet},
	}}

	cats := Categories(snap)
	assert.Equal(t, 2, cats[tasks.CategoryFeeding])
	assert.Equal(t, 2, cats[tasks.CategoryVet])

	days := ProductiveDays(snap)
	assert.Equal(t, map[string]int{"Monday": 2, "Wednesday": 1}, days)
}

func TestCompletionSeries(t *testing.T) {
	snap := Snapshot{Now: now, Tasks: []tasks.Task{
		task("a", now.Add(-time.Hour), true),
		task("b", now.Add(time.Hour), false),
		task("c", now.AddDate(0, 0, -2), true),
		task("old", now.AddDate(0, 0, -40), true),
	}}

	series, err := CompletionSeries(context.Background(), snap, 7)
	require.NoError(t, err)
	require.Len(t, series, 7)

	assert.True(t, series[0].Date.Equal(calendar.StartOfDay(now).AddDate(0, 0, -6)), "oldest day first")
	today := series[6]
	assert.Equal(t, 2, today.Total)
	assert.InDelta(t, 0.5, today.Rate, 1e-9)
	assert.InDelta(t, 1.0, series[4].Rate, 1e-9)
	assert.Zero(t, series[5].Rate, "no tasks due means rate 0")
}

func TestCompletionSeries_CancelledReturnsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series, err := CompletionSeries(ctx, Snapshot{Now: now}, 30)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, series)
}

func TestAverageTasksPerDay(t *testing.T) {
	snap := Snapshot{Now: now, Tasks: []tasks.Task{
		{ID: "a", CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "b", CreatedAt: now.AddDate(0, 0, -29)},
		{ID: "c", CreatedAt: now.AddDate(0, 0, -31)},
	}}
	assert.InDelta(t, 2.0/30.0, AverageTasksPerDay(snap, 30), 1e-9)
}

func TestService_Dashboard(t *testing.T) {
	svc := newTestService(
		[]pets.Pet{{ID: "p1", Name: "Milo"}},
		[]tasks.Task{
			task("today", now.Add(time.Hour), false),
			task("late", now.Add(-time.Hour), false),
			task("tomorrow", now.AddDate(0, 0, 1), false),
			task("done", now.Add(-2*time.Hour), true),
		},
		[]reminders.Reminder{{ID: "r", IsEnabled: true, ScheduledDate: now}},
	)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.TodayTasks)
	assert.Equal(t, 1, d.OverdueTasks)
	require.Len(t, d.UpcomingTasks, 1)
	assert.Equal(t, "tomorrow", d.UpcomingTasks[0].ID)
	assert.Equal(t, 1, d.TodayReminders)
	assert.Equal(t, 1, d.Streak)
	assert.Len(t, d.PerPet, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Dashboard(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecomputer_CoalescesBursts(t *testing.T) {
	repo := tasks.NewRepository(memory.NewStore(), collection.Options{})
	taskSvc := tasks.NewService(repo, nil)
	svc := NewService(&fakeSources{}, taskSvc, reminderList(nil), Options{})

	rc := NewRecomputer(svc, 50*time.Millisecond)
	defer rc.Close()
	rc.Watch(repo)

	var mu sync.Mutex
	published := 0
	done := make(chan Dashboard, 16)
	rc.OnUpdate(func(d Dashboard) {
		mu.Lock()
		published++
		mu.Unlock()
		done <- d
	})

	ctx := context.Background()
	const burst = 10
	for i := 0; i < burst; i++ {
		due := time.Now().Add(-time.Hour)
		_, err := taskSvc.Create(ctx, tasks.CreateInput{Title: "t", DueDate: &due})
		require.NoError(t, err)
	}

	var last Dashboard
	deadline := time.After(3 * time.Second)
	for last.OverdueTasks < burst {
		select {
		case last = <-done:
		case <-deadline:
			t.Fatalf("dashboard never reflected the burst, last=%+v", last)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, published, burst, "burst should be coalesced")

	latest, ok := rc.Latest()
	require.True(t, ok)
	assert.Equal(t, burst, latest.OverdueTasks)
}

func TestRecomputer_FreshExpiresWithClock(t *testing.T) {
	clock := now
	var mu sync.Mutex
	svc := newTestService(nil, []tasks.Task{task("soon", now.Add(time.Minute), false)}, nil)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	rc := NewRecomputer(svc, 50*time.Millisecond)
	defer rc.Close()

	done := make(chan Dashboard, 1)
	rc.OnUpdate(func(d Dashboard) { done <- d })
	rc.Trigger()
	select {
	case d := <-done:
		assert.Equal(t, 0, d.OverdueTasks)
	case <-time.After(3 * time.Second):
		t.Fatalf("dashboard never published")
	}

	d, ok := rc.Fresh()
	require.True(t, ok)
	assert.Equal(t, now, d.GeneratedAt)

	// la tarea ya venció: el resultado publicado no sirve más
	mu.Lock()
	clock = now.Add(2 * time.Minute)
	mu.Unlock()
	_, ok = rc.Fresh()
	assert.False(t, ok)

	_, ok = rc.Latest()
	assert.True(t, ok)
}

func TestService_AggregatesObserveLatency(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(&fakeSources{}, taskList(nil), reminderList(nil), Options{Metrics: m})

	svc.Categories()
	svc.ProductiveDays()
	svc.AverageTasksPerDay(7)

	// una serie por agregado
	assert.Equal(t, 3, testutil.CollectAndCount(m.AggregateDuration))
}
