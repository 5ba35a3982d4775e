// Package errs agrupa los errores tipados que devuelve el core.
// Los handlers y la CLI los inspeccionan con errors.As para decidir la respuesta.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError se devuelve antes de mutar, nunca se "corrige" el valor en silencio.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError: update/delete sobre un id inexistente.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// PersistenceError envuelve fallas del storage port. El estado en memoria queda intacto.
type PersistenceError struct {
	Op   string
	Kind string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InvalidRuleError: intervalo de recurrencia o de repetición <= 0.
type InvalidRuleError struct {
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return "invalid rule: " + e.Reason
}

type SyncErrorKind string

const (
	SyncUnavailable   SyncErrorKind = "unavailable"
	SyncInvalidRecord SyncErrorKind = "invalid_record"
	SyncFailed        SyncErrorKind = "failed"
)

// SyncError viene del colaborador de nube; nunca es fatal para la operación local.
type SyncError struct {
	Kind SyncErrorKind
	Err  error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return "sync " + string(e.Kind)
	}
	return fmt.Sprintf("sync %s: %v", e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInvalidRule(err error) bool {
	var ir *InvalidRuleError
	return errors.As(err, &ir)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func IsSync(err error) bool {
	var se *SyncError
	return errors.As(err, &se)
}
