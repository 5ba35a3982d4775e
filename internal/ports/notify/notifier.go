// Package notify define el puerto hacia el programador de notificaciones externo.
// La entrega no es responsabilidad del core: sólo se calcula cuándo y qué.
package notify

import (
	"context"
	"time"
)

type Payload struct {
	ReminderID string  `json:"reminder_id"`
	Title      string  `json:"title"`
	Body       string  `json:"body,omitempty"`
	PetID      *string `json:"pet_id,omitempty"`
}

type Notifier interface {
	// Schedule reemplaza cualquier notificación previa con el mismo id.
	Schedule(ctx context.Context, id string, p Payload, trigger time.Time, repeating bool) error
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	PendingCount(ctx context.Context) (int, error)
}
