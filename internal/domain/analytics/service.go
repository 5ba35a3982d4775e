package analytics

import (
	"context"
	"time"

	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/metrics"
)

type PetSource interface{ List() []pets.Pet }
type TaskSource interface{ All() []tasks.Task }
type ReminderSource interface{ All() []reminders.Reminder }

type Options struct {
	SeriesDays  int
	StreakLimit int
	Metrics     *metrics.Metrics
	Logger      logger.Logger
}

// Service expone los agregados sobre las colecciones vivas.
type Service struct {
	pets      PetSource
	tasks     TaskSource
	reminders ReminderSource

	seriesDays  int
	streakLimit int
	metrics     *metrics.Metrics
	log         logger.Logger
	now         func() time.Time
}

func NewService(p PetSource, t TaskSource, r ReminderSource, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	if opts.SeriesDays <= 0 {
		opts.SeriesDays = DefaultSeriesDays
	}
	if opts.StreakLimit <= 0 {
		opts.StreakLimit = DefaultStreakLimit
	}
	return &Service{
		pets:        p,
		tasks:       t,
		reminders:   r,
		seriesDays:  opts.SeriesDays,
		streakLimit: opts.StreakLimit,
		metrics:     opts.Metrics,
		log:         log.With(map[string]any{"component": "analytics"}),
		now:         time.Now,
	}
}

func (s *Service) Snapshot() Snapshot {
	return Snapshot{
		Now:       s.now(),
		Pets:      s.pets.List(),
		Tasks:     s.tasks.All(),
		Reminders: s.reminders.All(),
	}
}

func (s *Service) observe(name string, start time.Time) {
	s.metrics.ObserveAggregate(name, time.Since(start))
}

func (s *Service) Weekly(ref time.Time) PeriodStats {
	defer s.observe("weekly", time.Now())
	return Weekly(s.Snapshot(), ref)
}

func (s *Service) Monthly(ref time.Time) PeriodStats {
	defer s.observe("monthly", time.Now())
	return Monthly(s.Snapshot(), ref)
}

func (s *Service) PerPet() []PetStats {
	defer s.observe("per_pet", time.Now())
	return PerPet(s.Snapshot())
}

func (s *Service) Categories() map[tasks.Category]int {
	defer s.observe("categories", time.Now())
	return Categories(s.Snapshot())
}

func (s *Service) CompletionSeries(ctx context.Context, days int) ([]CompletionPoint, error) {
	defer s.observe("completion_series", time.Now())
	if days <= 0 {
		days = s.seriesDays
	}
	return CompletionSeries(ctx, s.Snapshot(), days)
}

func (s *Service) Streak() int {
	defer s.observe("streak", time.Now())
	return Streak(s.Snapshot(), s.streakLimit)
}

func (s *Service) ProductiveDays() map[string]int {
	defer s.observe("productive_days", time.Now())
	return ProductiveDays(s.Snapshot())
}

func (s *Service) AverageTasksPerDay(days int) float64 {
	defer s.observe("average_per_day", time.Now())
	if days <= 0 {
		days = s.seriesDays
	}
	return AverageTasksPerDay(s.Snapshot(), days)
}

const DashboardUpcoming = 5

type Dashboard struct {
	GeneratedAt    time.Time    `json:"generated_at"`
	TodayTasks     int          `json:"today_tasks"`
	OverdueTasks   int          `json:"overdue_tasks"`
	UpcomingTasks  []tasks.Task `json:"upcoming_tasks"`
	TodayReminders int          `json:"today_reminders"`
	Weekly         PeriodStats  `json:"weekly"`
	Monthly        PeriodStats  `json:"monthly"`
	Streak         int          `json:"streak"`
	PerPet         []PetStats   `json:"per_pet"`
}

// Dashboard arma el resumen completo sobre una sola foto. Si ctx se cancela
// a mitad de camino devuelve el error y nada más.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	defer s.observe("dashboard", time.Now())

	snap := s.Snapshot()
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		GeneratedAt:    snap.Now,
		TodayTasks:     len(tasks.Today(snap.Tasks, snap.Now)),
		OverdueTasks:   len(tasks.Overdue(snap.Tasks, snap.Now)),
		UpcomingTasks:  tasks.Upcoming(snap.Tasks, snap.Now, DashboardUpcoming),
		TodayReminders: len(reminders.Today(snap.Reminders, snap.Now)),
		Weekly:         Weekly(snap, snap.Now),
		Monthly:        Monthly(snap, snap.Now),
	}
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}
	d.Streak = Streak(snap, s.streakLimit)
	d.PerPet = PerPet(snap)
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
