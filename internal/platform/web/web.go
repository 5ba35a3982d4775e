// Package web reúne los helpers HTTP compartidos por los handlers de dominio.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/platform/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores reportan el nombre JSON del campo, no el del struct.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Decode lee el body JSON en dst y corre las reglas `validate` del struct.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Invalid("body", "invalid json")
	}
	return Validate(dst)
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return errs.Invalid(fe.Field(), describe(fe))
	}
	return errs.Invalid("", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// ParseTime interpreta un RFC3339 opcional. Vacío = ausente.
func ParseTime(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errs.Invalid(field, "must be RFC3339")
	}
	return &t, nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError traduce la taxonomía de errs a status HTTP.
func WriteError(w http.ResponseWriter, log logger.Logger, err error) {
	var (
		ve *errs.ValidationError
		ir *errs.InvalidRuleError
		nf *errs.NotFoundError
		pe *errs.PersistenceError
		se *errs.SyncError
	)

	switch {
	case errors.As(err, &ve):
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &ir):
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: ir.Error()})
	case errors.As(err, &nf):
		WriteJSON(w, http.StatusNotFound, errorResponse{Error: nf.Error()})
	case errors.As(err, &pe):
		log.Error("persistence failure", map[string]any{"error": err})
		WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
	case errors.As(err, &se):
		log.Warn("sync failure", map[string]any{"error": err})
		WriteJSON(w, http.StatusBadGateway, errorResponse{Error: se.Error()})
	default:
		log.Error("internal error", map[string]any{"error": err})
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
