package medications

import (
	"time"

	"pet-care-tracker/internal/domain/recurrence"
)

type Status string

const (
	StatusInactive   Status = "inactive"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
	StatusEndingSoon Status = "ending_soon"
	StatusActive     Status = "active"
)

// EndingSoonDays: días restantes a partir de los cuales el tratamiento está por terminar.
const EndingSoonDays = 3

type Medication struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	Name      string               `json:"name"`
	Dosage    string               `json:"dosage"`
	Frequency recurrence.Frequency `json:"frequency"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Instructions *string `json:"instructions,omitempty"`
	PrescribedBy *string `json:"prescribed_by,omitempty"`

	IsActive    bool `json:"is_active"`
	IsCompleted bool `json:"is_completed"`

	NextDoseDate *time.Time `json:"next_dose_date,omitempty"`
	LastDoseDate *time.Time `json:"last_dose_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOverdue: activa y con la próxima dosis estrictamente antes de now.
func (m Medication) IsOverdue(now time.Time) bool {
	return m.IsActive && m.NextDoseDate != nil && m.NextDoseDate.Before(now)
}

// DaysRemaining: días completos hasta EndDate, nunca negativo. false si no hay fecha de fin.
func (m Medication) DaysRemaining(now time.Time) (int, bool) {
	if m.EndDate == nil {
		return 0, false
	}
	days := int(m.EndDate.Sub(now) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return days, true
}

// Status evalúa en orden: inactiva, completada, atrasada, por terminar, activa.
func (m Medication) Status(now time.Time) Status {
	switch {
	case !m.IsActive:
		return StatusInactive
	case m.IsCompleted:
		return StatusCompleted
	case m.IsOverdue(now):
		return StatusOverdue
	}
	if days, ok := m.DaysRemaining(now); ok && days <= EndingSoonDays {
		return StatusEndingSoon
	}
	return StatusActive
}

// RecordDose registra una toma en at y calcula la siguiente según la frecuencia.
// Si la siguiente cae después de EndDate no queda próxima dosis.
func (m Medication) RecordDose(at time.Time) Medication {
	last := at
	m.LastDoseDate = &last
	m.NextDoseDate = recurrence.NextDose(at, m.Frequency)
	if m.NextDoseDate != nil && m.EndDate != nil && m.NextDoseDate.After(*m.EndDate) {
		m.NextDoseDate = nil
	}
	return m
}
