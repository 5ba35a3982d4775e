package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	notifymem "pet-care-tracker/internal/adapters/notify/memory"
	"pet-care-tracker/internal/adapters/storage/memory"
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/recurrence"
	"pet-care-tracker/internal/ports/notify"
)

func newTestService(now time.Time) (*Service, *notifymem.Notifier) {
	n := notifymem.NewNotifier()
	svc := NewService(NewRepository(memory.NewStore(), collection.Options{}), n, nil, nil)
	svc.now = func() time.Time { return now }
	return svc, n
}

func secs(v int64) *int64 { return &v }

func TestReminder_NextTrigger_ClosedForm(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC)
	scheduled := time.Date(2025, 6, 8, 8, 0, 0, 0, time.UTC) // hace 3 días

	r := Reminder{ScheduledDate: scheduled, IsRepeating: true, RepeatInterval: secs(86400), IsEnabled: true}
	got, err := r.NextTrigger(now)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := time.Date(2025, 6, 12, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	// muy en el pasado: mismo costo, mismo invariante
	r.ScheduledDate = time.Date(1970, 1, 1, 8, 0, 0, 0, time.UTC)
	got, err = r.NextTrigger(now)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.Before(now) || !got.Before(now.Add(24*time.Hour)) {
		t.Fatalf("expected trigger within [now, now+interval), got %s", got)
	}

	// más atrás que el rango de time.Duration
	r.ScheduledDate = time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err = r.NextTrigger(now)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if want := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestService_Create_RejectsIntervalBeyondDuration(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	svc, n := newTestService(now)

	_, err := svc.Create(context.Background(), CreateInput{
		Title:          "Forever",
		ScheduledDate:  now,
		IsRepeating:    true,
		RepeatInterval: secs(MaxRepeatInterval + 1),
	})
	if !errs.IsInvalidRule(err) {
		t.Fatalf("expected InvalidRuleError, got %v", err)
	}
	if len(svc.All()) != 0 {
		t.Fatalf("expected nothing persisted")
	}
	if pending, _ := n.PendingCount(context.Background()); pending != 0 {
		t.Fatalf("expected no notification scheduled, got %d", pending)
	}

	d, err := Reminder{IsRepeating: true, RepeatInterval: secs(MaxRepeatInterval)}.Interval()
	if err != nil || d <= 0 {
		t.Fatalf("expected max interval accepted, got %s err=%v", d, err)
	}
}

func TestReminder_NextTrigger_NonRepeating(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)

	got, err := Reminder{ScheduledDate: at, IsEnabled: true}.NextTrigger(now)
	if err != nil || got == nil || !got.Equal(at) {
		t.Fatalf("expected scheduled date for enabled reminder, got %v err=%v", got, err)
	}

	got, err = Reminder{ScheduledDate: at}.NextTrigger(now)
	if err != nil || got != nil {
		t.Fatalf("expected nil for disabled reminder, got %v err=%v", got, err)
	}
}

func TestReminder_Interval_FallsBackToRepeatType(t *testing.T) {
	weekly := recurrence.RepeatWeekly
	d, err := Reminder{IsRepeating: true, RepeatType: &weekly}.Interval()
	if err != nil || d != 7*24*time.Hour {
		t.Fatalf("expected one week, got %s err=%v", d, err)
	}

	if _, err := (Reminder{IsRepeating: true}).Interval(); !errs.IsInvalidRule(err) {
		t.Fatalf("expected InvalidRuleError without interval or type, got %v", err)
	}
	if _, err := (Reminder{IsRepeating: true, RepeatInterval: secs(0)}).Interval(); !errs.IsInvalidRule(err) {
		t.Fatalf("expected InvalidRuleError for zero interval, got %v", err)
	}
}

func TestReminder_IsPastDue(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	if (Reminder{ScheduledDate: now, IsEnabled: true}).IsPastDue(now) {
		t.Fatalf("scheduled == now must not be past due")
	}
	if !(Reminder{ScheduledDate: now.Add(-time.Second), IsEnabled: true}).IsPastDue(now) {
		t.Fatalf("expected past due")
	}
	if (Reminder{ScheduledDate: now.Add(-time.Hour)}).IsPastDue(now) {
		t.Fatalf("disabled reminder is never past due")
	}
}

func TestService_Create_SchedulesNotification(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	svc, n := newTestService(now)
	msg := "  two pills "

	r, err := svc.Create(context.Background(), CreateInput{
		Title:          "Pills",
		Message:        &msg,
		ScheduledDate:  now.Add(-90 * time.Minute),
		IsRepeating:    true,
		RepeatInterval: secs(3600),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !r.IsEnabled || r.NotificationID == nil {
		t.Fatalf("expected enabled reminder with notification handle")
	}

	s, ok := n.Get(*r.NotificationID)
	if !ok {
		t.Fatalf("expected notification scheduled")
	}
	if want := now.Add(30 * time.Minute); !s.Trigger.Equal(want) {
		t.Fatalf("expected trigger %s, got %s", want, s.Trigger)
	}
	if !s.Repeating || s.Payload.Body != "two pills" || s.Payload.ReminderID != r.ID {
		t.Fatalf("unexpected payload %+v", s)
	}
}

func TestService_Create_RejectsInvalidInterval(t *testing.T) {
	svc, n := newTestService(time.Now())

	_, err := svc.Create(context.Background(), CreateInput{
		Title:          "Bad",
		ScheduledDate:  time.Now(),
		IsRepeating:    true,
		RepeatInterval: secs(-5),
	})
	if !errs.IsInvalidRule(err) {
		t.Fatalf("expected InvalidRuleError, got %v", err)
	}
	if c, _ := n.PendingCount(context.Background()); c != 0 {
		t.Fatalf("expected nothing scheduled")
	}
	if len(svc.All()) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestService_SetEnabled_CancelsAndReschedules(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	svc, n := newTestService(now)
	ctx := context.Background()

	r, _ := svc.Create(ctx, CreateInput{Title: "Vet", ScheduledDate: now.Add(48 * time.Hour)})

	if _, err := svc.SetEnabled(ctx, r.ID, false); err != nil {
		t.Fatalf("disable error: %v", err)
	}
	if _, ok := n.Get(r.ID); ok {
		t.Fatalf("expected notification cancelled")
	}

	if _, err := svc.SetEnabled(ctx, r.ID, true); err != nil {
		t.Fatalf("enable error: %v", err)
	}
	if _, ok := n.Get(r.ID); !ok {
		t.Fatalf("expected notification rescheduled")
	}
}

func TestService_Delete_CancelsThenRemoves(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	svc, n := newTestService(now)
	ctx := context.Background()
	r, _ := svc.Create(ctx, CreateInput{Title: "Vet", ScheduledDate: now.Add(time.Hour)})

	if err := svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if c, _ := n.PendingCount(ctx); c != 0 {
		t.Fatalf("expected notification cancelled")
	}
	if err := svc.Delete(ctx, r.ID); !errs.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// notificador que siempre falla
type brokenNotifier struct{}

func (brokenNotifier) Schedule(context.Context, string, notify.Payload, time.Time, bool) error {
	return errors.New("scheduler down")
}
func (brokenNotifier) Cancel(context.Context, string) error { return errors.New("scheduler down") }
func (brokenNotifier) CancelAll(context.Context) error      { return errors.New("scheduler down") }
func (brokenNotifier) PendingCount(context.Context) (int, error) {
	return 0, errors.New("scheduler down")
}

func TestService_NotifierFailureDoesNotRollBack(t *testing.T) {
	svc := NewService(NewRepository(memory.NewStore(), collection.Options{}), brokenNotifier{}, nil, nil)

	r, err := svc.Create(context.Background(), CreateInput{Title: "Walk", ScheduledDate: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("expected create to succeed despite scheduler, got %v", err)
	}
	if _, err := svc.GetByID(r.ID); err != nil {
		t.Fatalf("expected reminder persisted: %v", err)
	}
	if _, err := svc.RescheduleAll(context.Background()); err == nil {
		t.Fatalf("expected RescheduleAll to surface scheduler failure")
	}
}

func TestService_RollForward(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	svc, n := newTestService(now)
	ctx := context.Background()
	daily := recurrence.RepeatDaily

	stale, _ := svc.Create(ctx, CreateInput{Title: "Feed", ScheduledDate: now.AddDate(0, 0, -3).Add(-time.Hour), IsRepeating: true, RepeatType: &daily})
	once, _ := svc.Create(ctx, CreateInput{Title: "Once", ScheduledDate: now.Add(-time.Hour)})
	future, _ := svc.Create(ctx, CreateInput{Title: "Later", ScheduledDate: now.Add(time.Hour), IsRepeating: true, RepeatInterval: secs(60)})

	moved, err := svc.RollForward(ctx)
	if err != nil {
		t.Fatalf("RollForward error: %v", err)
	}
	if moved != 1 {
		t.Fatalf("expected 1 reminder moved, got %d", moved)
	}

	got, _ := svc.GetByID(stale.ID)
	if want := now.Add(23 * time.Hour); !got.ScheduledDate.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got.ScheduledDate)
	}
	if s, _ := n.Get(stale.ID); !s.Trigger.Equal(got.ScheduledDate) {
		t.Fatalf("expected notification moved to %s, got %s", got.ScheduledDate, s.Trigger)
	}

	if g, _ := svc.GetByID(once.ID); !g.ScheduledDate.Equal(once.ScheduledDate) {
		t.Fatalf("non repeating reminder must not move")
	}
	if g, _ := svc.GetByID(future.ID); !g.ScheduledDate.Equal(future.ScheduledDate) {
		t.Fatalf("future reminder must not move")
	}
	// el aviso único vencido no se agenda
	if _, ok := n.Get(once.ID); ok {
		t.Fatalf("expected past one-shot reminder not scheduled")
	}
}

func TestService_TodayAndUpcoming(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()
	off := false

	morning, _ := svc.Create(ctx, CreateInput{Title: "a", ScheduledDate: now.Add(-2 * time.Hour)})
	_, _ = svc.Create(ctx, CreateInput{Title: "b", ScheduledDate: now.Add(time.Hour), Enabled: &off})
	far, _ := svc.Create(ctx, CreateInput{Title: "c", ScheduledDate: now.AddDate(0, 0, 5)})
	near, _ := svc.Create(ctx, CreateInput{Title: "d", ScheduledDate: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)})

	today := svc.Today()
	if len(today) != 1 || today[0].ID != morning.ID {
		t.Fatalf("unexpected today reminders %+v", today)
	}
	up := svc.Upcoming()
	if len(up) != 2 || up[0].ID != near.ID || up[1].ID != far.ID {
		t.Fatalf("unexpected upcoming order %+v", up)
	}
}
