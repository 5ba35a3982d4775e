package tasks

import (
	"sort"
	"time"

	"pet-care-tracker/internal/domain/calendar"
)

// Today: incompletas con vencimiento dentro del día de now.
func Today(items []Task, now time.Time) []Task {
	day := calendar.Day(now)
	out := make([]Task, 0)
	for _, t := range items {
		if !t.IsCompleted && t.DueDate != nil && day.Contains(*t.DueDate) {
			out = append(out, t)
		}
	}
	return out
}

func Overdue(items []Task, now time.Time) []Task {
	out := make([]Task, 0)
	for _, t := range items {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out
}

// Upcoming: incompletas, no vencidas, desde mañana en adelante, ascendente por fecha.
// limit <= 0 no recorta.
func Upcoming(items []Task, now time.Time, limit int) []Task {
	tomorrow := calendar.Day(now).End
	out := make([]Task, 0)
	for _, t := range items {
		if t.IsCompleted || t.DueDate == nil || t.IsOverdue(now) {
			continue
		}
		if t.DueDate.Before(tomorrow) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type SortOrder string

const (
	SortByDueDate   SortOrder = "due_date"
	SortByPriority  SortOrder = "priority"
	SortByCategory  SortOrder = "category"
	SortByCreatedAt SortOrder = "created_at"
)

func (s SortOrder) Valid() bool {
	switch s {
	case SortByDueDate, SortByPriority, SortByCategory, SortByCreatedAt:
		return true
	}
	return false
}

// Filter es el pipeline de la vista de lista. Los filtros se aplican en orden:
// categoría, mascota, completadas, y al final el orden.
type Filter struct {
	Category      *Category
	PetID         *string
	ShowCompleted bool
	Sort          SortOrder // vacío = due_date
}

func Apply(items []Task, f Filter) []Task {
	out := make([]Task, 0, len(items))
	for _, t := range items {
		if f.Category != nil && t.Category != *f.Category {
			continue
		}
		if f.PetID != nil && !t.BelongsTo(*f.PetID) {
			continue
		}
		if !f.ShowCompleted && t.IsCompleted {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, lessFunc(out, f.Sort))
	return out
}

func lessFunc(out []Task, order SortOrder) func(i, j int) bool {
	switch order {
	case SortByPriority:
		return func(i, j int) bool { return out[i].Priority.Rank() > out[j].Priority.Rank() }
	case SortByCategory:
		return func(i, j int) bool { return out[i].Category < out[j].Category }
	case SortByCreatedAt:
		return func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) }
	default:
		// sin fecha va al final
		return func(i, j int) bool {
			a, b := out[i].DueDate, out[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		}
	}
}
