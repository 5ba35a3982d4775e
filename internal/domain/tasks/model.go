package tasks

import (
	"time"

	"pet-care-tracker/internal/domain/recurrence"
)

type Category string

const (
	CategoryFeeding    Category = "feeding"
	CategoryWalking    Category = "walking"
	CategoryGrooming   Category = "grooming"
	CategoryVet        Category = "vet"
	CategoryMedication Category = "medication"
	CategoryTraining   Category = "training"
	CategoryCleaning   Category = "cleaning"
	CategoryOther      Category = "other"
)

// Categories en orden de declaración.
var Categories = []Category{
	CategoryFeeding, CategoryWalking, CategoryGrooming, CategoryVet,
	CategoryMedication, CategoryTraining, CategoryCleaning, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank: urgent > high > medium > low. 0 para valores desconocidos.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

type Task struct {
	ID string `json:"id"`

	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`

	// Referencia débil: la mascota puede no existir más.
	PetID *string `json:"pet_id,omitempty"`

	DueDate *time.Time `json:"due_date,omitempty"`

	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Tipo e intervalo viajan juntos: o están los dos o ninguno.
	Recurrence  *recurrence.Rule `json:"recurrence,omitempty"`
	NextDueDate *time.Time       `json:"next_due_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t Task) IsRecurring() bool { return t.Recurrence != nil }

// IsOverdue: con fecha, sin completar y vencida estrictamente antes de now.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.IsCompleted && t.DueDate.Before(now)
}

func (t Task) BelongsTo(petID string) bool {
	return t.PetID != nil && *t.PetID == petID
}

// MarkCompleted devuelve la tarea completada en now. Si es recurrente calcula
// NextDueDate desde DueDate (o desde now si no tiene fecha). No reabre la tarea
// ni crea una nueva instancia para la próxima ocurrencia.
func (t Task) MarkCompleted(now time.Time) (Task, error) {
	if t.Recurrence != nil {
		anchor := now
		if t.DueDate != nil {
			anchor = *t.DueDate
		}
		next, err := recurrence.Next(anchor, *t.Recurrence)
		if err != nil {
			return Task{}, err
		}
		t.NextDueDate = &next
	}

	completedAt := now
	t.IsCompleted = true
	t.CompletedAt = &completedAt
	t.UpdatedAt = now
	return t, nil
}

// Reopen revierte la completitud. NextDueDate se conserva.
func (t Task) Reopen(now time.Time) Task {
	t.IsCompleted = false
	t.CompletedAt = nil
	t.UpdatedAt = now
	return t
}
