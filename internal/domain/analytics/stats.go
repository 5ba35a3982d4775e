// Package analytics deriva estadísticas de sólo lectura a partir de las colecciones
// de mascotas, tareas y recordatorios. No guarda estado propio: cada llamada toma
// una foto de las colecciones al empezar y calcula sobre ella.
package analytics

import (
	"context"
	"time"

	"pet-care-tracker/internal/domain/calendar"
	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
)

const (
	DefaultSeriesDays  = 30
	DefaultStreakLimit = 3650
)

// Snapshot es la vista consistente sobre la que trabaja cada agregado.
type Snapshot struct {
	Now       time.Time
	Pets      []pets.Pet
	Tasks     []tasks.Task
	Reminders []reminders.Reminder
}

type PeriodStats struct {
	TotalTasks      int             `json:"total_tasks"`
	CompletedTasks  int             `json:"completed_tasks"`
	OverdueTasks    int             `json:"overdue_tasks"`
	ActiveReminders int             `json:"active_reminders"`
	Period          calendar.Window `json:"period"`
}

type PetStats struct {
	PetID          string `json:"pet_id"`
	PetName        string `json:"pet_name"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	PendingTasks   int    `json:"pending_tasks"`
	// Promedio de completed_at - created_at en segundos; ausente sin tareas completadas.
	AverageCompletionSeconds *float64        `json:"average_completion_seconds,omitempty"`
	FavoriteCategory         *tasks.Category `json:"favorite_category,omitempty"`
}

type CompletionPoint struct {
	Date      time.Time `json:"date"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Rate      float64   `json:"rate"`
}

// Window calcula totales para las tareas con vencimiento dentro de w.
// ActiveReminders cuenta los recordatorios habilitados sin filtrar por ventana.
func Window(s Snapshot, w calendar.Window) PeriodStats {
	out := PeriodStats{Period: w}
	for _, t := range s.Tasks {
		if t.DueDate == nil || !w.Contains(*t.DueDate) {
			continue
		}
		out.TotalTasks++
		if t.IsCompleted {
			out.CompletedTasks++
		}
		if t.IsOverdue(s.Now) {
			out.OverdueTasks++
		}
	}
	out.ActiveReminders = len(reminders.Enabled(s.Reminders))
	return out
}

func Weekly(s Snapshot, ref time.Time) PeriodStats  { return Window(s, calendar.Week(ref)) }
func Monthly(s Snapshot, ref time.Time) PeriodStats { return Window(s, calendar.Month(ref)) }

// PerPet devuelve una entrada por mascota, en el orden de la colección.
// Las tareas con pet id colgado no aparecen en ninguna entrada.
func PerPet(s Snapshot) []PetStats {
	out := make([]PetStats, 0, len(s.Pets))
	for _, p := range s.Pets {
		out = append(out, petStats(p, s.Tasks))
	}
	return out
}

func petStats(p pets.Pet, all []tasks.Task) PetStats {
	st := PetStats{PetID: p.ID, PetName: p.Name}

	counts := map[tasks.Category]int{}
	var order []tasks.Category
	var total time.Duration
	var timed int

	for _, t := range all {
		if !t.BelongsTo(p.ID) {
			continue
		}
		st.TotalTasks++
		if _, seen := counts[t.Category]; !seen {
			order = append(order, t.Category)
		}
		counts[t.Category]++

		if !t.IsCompleted {
			st.PendingTasks++
			continue
		}
		st.CompletedTasks++
		if t.CompletedAt != nil && !t.CreatedAt.IsZero() {
			total += t.CompletedAt.Sub(t.CreatedAt)
			timed++
		}
	}

	if timed > 0 {
		avg := (total / time.Duration(timed)).Seconds()
		st.AverageCompletionSeconds = &avg
	}

	// empate: gana la primera categoría encontrada
	best := -1
	for _, c := range order {
		if counts[c] > best {
			best = counts[c]
			fav := c
			st.FavoriteCategory = &fav
		}
	}
	return st
}

// Categories cuenta todas las tareas por categoría, sin importar fecha ni estado.
func Categories(s Snapshot) map[tasks.Category]int {
	out := map[tasks.Category]int{}
	for _, t := range s.Tasks {
		out[t.Category]++
	}
	return out
}

// CompletionSeries calcula la tasa de completitud de cada uno de los últimos
// days días (hoy incluido), del más viejo al más nuevo. Si ctx se cancela no
// devuelve resultados parciales.
func CompletionSeries(ctx context.Context, s Snapshot, days int) ([]CompletionPoint, error) {
	if days <= 0 {
		days = DefaultSeriesDays
	}
	today := calendar.StartOfDay(s.Now)
	first := today.AddDate(0, 0, -(days - 1))

	type bucket struct{ completed, total int }
	byDay := make(map[time.Time]*bucket, days)
	for _, t := range s.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.DueDate == nil {
			continue
		}
		day := calendar.StartOfDay(t.DueDate.In(s.Now.Location()))
		if day.Before(first) || day.After(today) {
			continue
		}
		b := byDay[day]
		if b == nil {
			b = &bucket{}
			byDay[day] = b
		}
		b.total++
		if t.IsCompleted {
			b.completed++
		}
	}

	out := make([]CompletionPoint, 0, days)
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := first.AddDate(0, 0, i)
		p := CompletionPoint{Date: day}
		if b := byDay[day]; b != nil {
			p.Completed, p.Total = b.completed, b.total
			p.Rate = float64(b.completed) / float64(b.total)
		}
		out = append(out, p)
	}
	return out, nil
}

// Streak cuenta días consecutivos hacia atrás desde hoy con al menos una tarea
// completada que vencía ese día. Se corta en el primer día sin completadas o al
// llegar a limit días.
func Streak(s Snapshot, limit int) int {
	if limit <= 0 {
		limit = DefaultStreakLimit
	}

	done := map[time.Time]struct{}{}
	for _, t := range s.Tasks {
		if t.IsCompleted && t.DueDate != nil {
			done[calendar.StartOfDay(t.DueDate.In(s.Now.Location()))] = struct{}{}
		}
	}

	day := calendar.StartOfDay(s.Now)
	streak := 0
	for streak < limit {
		if _, ok := done[day]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// ProductiveDays cuenta tareas completadas por día de la semana de completed_at.
func ProductiveDays(s Snapshot) map[string]int {
	out := map[string]int{}
	for _, t := range s.Tasks {
		if !t.IsCompleted || t.CompletedAt == nil {
			continue
		}
		out[t.CompletedAt.In(s.Now.Location()).Weekday().String()]++
	}
	return out
}

// AverageTasksPerDay: tareas creadas en los últimos days días dividido days.
func AverageTasksPerDay(s Snapshot, days int) float64 {
	if days <= 0 {
		days = DefaultSeriesDays
	}
	cutoff := s.Now.AddDate(0, 0, -days)
	n := 0
	for _, t := range s.Tasks {
		if !t.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return float64(n) / float64(days)
}
