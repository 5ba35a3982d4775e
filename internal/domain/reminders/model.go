package reminders

import (
	"fmt"
	"math"
	"time"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/recurrence"
)

type Reminder struct {
	ID string `json:"id"`

	Title   string  `json:"title"`
	Message *string `json:"message,omitempty"`

	PetID        *string `json:"pet_id,omitempty"`
	SourceTaskID *string `json:"source_task_id,omitempty"`

	ScheduledDate time.Time `json:"scheduled_date"`

	IsRepeating bool `json:"is_repeating"`
	// Segundos entre disparos. Si falta se usa la tabla de RepeatType.
	RepeatInterval *int64                 `json:"repeat_interval,omitempty"`
	RepeatType     *recurrence.RepeatType `json:"repeat_type,omitempty"`

	IsEnabled bool `json:"is_enabled"`

	// Handle de la notificación en el scheduler externo.
	NotificationID *string `json:"notification_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPastDue: habilitado y programado estrictamente antes de now.
func (r Reminder) IsPastDue(now time.Time) bool {
	return r.IsEnabled && r.ScheduledDate.Before(now)
}

// MaxRepeatInterval es el mayor repeat_interval (segundos) representable como time.Duration.
const MaxRepeatInterval = math.MaxInt64 / int64(time.Second)

// Interval es el espaciado entre disparos de un recordatorio repetitivo.
func (r Reminder) Interval() (time.Duration, error) {
	if r.RepeatInterval != nil {
		if *r.RepeatInterval <= 0 {
			return 0, &errs.InvalidRuleError{Reason: fmt.Sprintf("repeat interval must be > 0, got %d", *r.RepeatInterval)}
		}
		if *r.RepeatInterval > MaxRepeatInterval {
			return 0, &errs.InvalidRuleError{Reason: fmt.Sprintf("repeat interval must be <= %d seconds, got %d", MaxRepeatInterval, *r.RepeatInterval)}
		}
		return time.Duration(*r.RepeatInterval) * time.Second, nil
	}
	if r.RepeatType != nil {
		if secs, ok := r.RepeatType.Seconds(); ok {
			return time.Duration(secs) * time.Second, nil
		}
		return 0, &errs.InvalidRuleError{Reason: fmt.Sprintf("unknown repeat type %q", *r.RepeatType)}
	}
	return 0, &errs.InvalidRuleError{Reason: "repeating reminder needs repeat_interval or repeat_type"}
}

// NextTrigger: sin repetición es ScheduledDate si está habilitado (nil si no);
// con repetición es el menor ScheduledDate + k*intervalo >= now.
func (r Reminder) NextTrigger(now time.Time) (*time.Time, error) {
	if !r.IsRepeating {
		if !r.IsEnabled {
			return nil, nil
		}
		t := r.ScheduledDate
		return &t, nil
	}

	interval, err := r.Interval()
	if err != nil {
		return nil, err
	}
	t, err := recurrence.NextTrigger(r.ScheduledDate, now, interval)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
