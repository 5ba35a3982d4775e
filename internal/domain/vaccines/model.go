package vaccines

import "time"

type Type string

const (
	TypeRabies         Type = "rabies"
	TypeDistemper      Type = "distemper"
	TypeParvovirus     Type = "parvovirus"
	TypeBordetella     Type = "bordetella"
	TypeLeptospirosis  Type = "leptospirosis"
	TypeLyme           Type = "lyme"
	TypeFelineLeukemia Type = "feline_leukemia"
	TypeFVRCP          Type = "fvrcp"
	TypeOther          Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeRabies, TypeDistemper, TypeParvovirus, TypeBordetella, TypeLeptospirosis,
		TypeLyme, TypeFelineLeukemia, TypeFVRCP, TypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusDueSoon   Status = "due_soon"
	StatusUpcoming  Status = "upcoming"
)

// DueSoonDays es el umbral de días hasta el próximo refuerzo para StatusDueSoon.
const DueSoonDays = 7

type Vaccine struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	Name string `json:"name"`
	Type Type   `json:"type"`

	AdministeredDate time.Time  `json:"administered_date"`
	NextDueDate      *time.Time `json:"next_due_date,omitempty"`

	AdministeredBy *string `json:"administered_by,omitempty"`
	BatchNumber    *string `json:"batch_number,omitempty"`
	Notes          *string `json:"notes,omitempty"`

	IsRequired  bool `json:"is_required"`
	IsCompleted bool `json:"is_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DaysUntilNext: días completos desde now hasta NextDueDate (negativo si ya pasó).
func (v Vaccine) DaysUntilNext(now time.Time) (int, bool) {
	if v.NextDueDate == nil {
		return 0, false
	}
	return int(v.NextDueDate.Sub(now) / (24 * time.Hour)), true
}

func (v Vaccine) IsOverdue(now time.Time) bool {
	return v.NextDueDate != nil && v.NextDueDate.Before(now)
}

// Status evalúa en orden: completada, vencida, próxima (<= 7 días), pendiente.
func (v Vaccine) Status(now time.Time) Status {
	if v.IsCompleted {
		return StatusCompleted
	}
	if v.IsOverdue(now) {
		return StatusOverdue
	}
	if days, ok := v.DaysUntilNext(now); ok && days <= DueSoonDays {
		return StatusDueSoon
	}
	return StatusUpcoming
}
