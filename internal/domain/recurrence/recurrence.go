// Package recurrence calcula próximas ocurrencias de tareas, dosis de medicación
// y disparos de recordatorios. Todas las funciones son puras.
package recurrence

import (
	"fmt"
	"time"

	"pet-care-tracker/internal/domain/errs"
)

type Type string

const (
	Daily   Type = "daily"
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
	Yearly  Type = "yearly"
	// Custom avanza en días, igual que Daily.
	Custom Type = "custom"
)

func (t Type) Valid() bool {
	switch t {
	case Daily, Weekly, Monthly, Yearly, Custom:
		return true
	}
	return false
}

// Rule es el par {tipo, intervalo} que gobierna el avance de una fecha de vencimiento.
type Rule struct {
	Type     Type `json:"type"`
	Interval int  `json:"interval"`
}

func (r Rule) Validate() error {
	if !r.Type.Valid() {
		return &errs.InvalidRuleError{Reason: fmt.Sprintf("unknown recurrence type %q", r.Type)}
	}
	if r.Interval < 1 {
		return &errs.InvalidRuleError{Reason: fmt.Sprintf("interval must be >= 1, got %d", r.Interval)}
	}
	return nil
}

// Next devuelve anchor avanzado según la regla.
// Meses y años se recortan al último día del mes destino (31 ene + 1 mes = 28/29 feb).
func Next(anchor time.Time, r Rule) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}

	switch r.Type {
	case Daily, Custom:
		return anchor.AddDate(0, 0, r.Interval), nil
	case Weekly:
		return anchor.AddDate(0, 0, 7*r.Interval), nil
	case Monthly:
		return addMonthsClamped(anchor, r.Interval), nil
	default: // Yearly
		return addMonthsClamped(anchor, 12*r.Interval), nil
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	total := int(m) - 1 + months
	ny := y + floorDiv(total, 12)
	nm := time.Month(total-floorDiv(total, 12)*12 + 1)

	if last := daysIn(ny, nm, t.Location()); d > last {
		d = last
	}
	return time.Date(ny, nm, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, m time.Month, loc *time.Location) int {
	// día 0 del mes siguiente = último día del mes
	return time.Date(year, m+1, 0, 0, 0, 0, 0, loc).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
