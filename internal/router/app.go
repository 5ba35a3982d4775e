package router

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	notifymem "pet-care-tracker/internal/adapters/notify/memory"
	mem "pet-care-tracker/internal/adapters/storage/memory"
	"pet-care-tracker/internal/domain/analytics"
	"pet-care-tracker/internal/domain/cloudsync"
	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/medications"
	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/domain/vaccines"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/metrics"
	syncport "pet-care-tracker/internal/ports/cloudsync"
	"pet-care-tracker/internal/ports/notify"
	"pet-care-tracker/internal/ports/storage"
)

type Options struct {
	// nil usa el store en memoria.
	Store storage.Store
	// nil usa el notifier en memoria.
	Notifier notify.Notifier
	// nil deja /sync sin montar.
	Syncer syncport.Syncer

	Logger   logger.Logger
	Registry *prometheus.Registry

	StorageTimeout time.Duration
	Debounce       time.Duration
	SeriesDays     int
	StreakLimit    int
}

// App es la raíz de composición: colecciones cargadas, servicios y recálculo del dashboard.
type App struct {
	Pets        *pets.Service
	Tasks       *tasks.Service
	Reminders   *reminders.Service
	Vaccines    *vaccines.Service
	Medications *medications.Service
	Analytics   *analytics.Service
	Recomputer  *analytics.Recomputer
	Sync        *cloudsync.Service

	Metrics  *metrics.Metrics
	registry *prometheus.Registry
	log      logger.Logger
	handler  http.Handler
}

type loader interface {
	Load(ctx context.Context) error
}

// NewApp carga todas las colecciones, adelanta los recordatorios vencidos y
// registra la agenda de notificaciones. Falla solo si el storage falla.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := metrics.New(reg)

	store := opts.Store
	if store == nil {
		store = mem.NewStore()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifymem.NewNotifier()
	}

	copts := collection.Options{Timeout: opts.StorageTimeout, Logger: log, Metrics: m}
	petRepo := pets.NewRepository(store, copts)
	taskRepo := tasks.NewRepository(store, copts)
	reminderRepo := reminders.NewRepository(store, copts)
	vaccineRepo := vaccines.NewRepository(store, copts)
	medicationRepo := medications.NewRepository(store, copts)

	for _, l := range []loader{petRepo, taskRepo, reminderRepo, vaccineRepo, medicationRepo} {
		if err := l.Load(ctx); err != nil {
			return nil, err
		}
	}

	a := &App{
		Pets:        pets.NewService(petRepo, log),
		Tasks:       tasks.NewService(taskRepo, log),
		Reminders:   reminders.NewService(reminderRepo, notifier, m, log),
		Vaccines:    vaccines.NewService(vaccineRepo, log),
		Medications: medications.NewService(medicationRepo, log),
		Metrics:     m,
		registry:    reg,
		log:         log,
	}

	if _, err := a.Reminders.RollForward(ctx); err != nil {
		return nil, err
	}
	if n, err := a.Reminders.RescheduleAll(ctx); err != nil {
		// la agenda externa es best-effort
		log.Warn("initial reschedule failed", map[string]any{"error": err})
	} else {
		log.Info("notifications scheduled", map[string]any{"count": n})
	}

	a.Analytics = analytics.NewService(a.Pets, a.Tasks, a.Reminders, analytics.Options{
		SeriesDays:  opts.SeriesDays,
		StreakLimit: opts.StreakLimit,
		Metrics:     m,
		Logger:      log,
	})
	a.Recomputer = analytics.NewRecomputer(a.Analytics, opts.Debounce)
	a.Recomputer.Watch(petRepo, taskRepo, reminderRepo)
	a.Recomputer.Trigger()

	if opts.Syncer != nil {
		a.Sync = cloudsync.NewService(opts.Syncer, a.Pets, a.Tasks, a.Reminders, m, log)
	}

	a.handler = NewRouter(a)
	return a, nil
}

func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Close() {
	a.Recomputer.Close()
}
