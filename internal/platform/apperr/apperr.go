// Package apperr defines the error kinds shared by services and the HTTP
// layer, and how each one maps to a status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInternal marks failures the client cannot act on, such as a
	// recovered panic.
	ErrInternal = errors.New("internal error")
)

// PostgreSQL error codes that carry a user-facing meaning.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
	pgNumericOutOfRange   = "22003"
	pgStringTooLong       = "22001"
)

// ValidationError reports input that cannot be accepted. Field is empty
// when the problem is not tied to one input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func Required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFound wraps ErrNotFound with the entity and id that were looked up.
func NotFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// Conflict wraps ErrConflict with a description of the duplicate value.
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// FromDB translates driver errors into the taxonomy. Errors it does not
// recognise are returned unchanged.
func FromDB(err error, entity string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound(entity, id)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return Conflict("%s with this %s", entity, constraintField(pgErr))
	case pgForeignKeyViolation:
		return &ValidationError{Field: pgErr.ColumnName, Message: "references a record that does not exist"}
	case pgNotNullViolation:
		return Required(pgErr.ColumnName)
	case pgCheckViolation, pgInvalidText, pgNumericOutOfRange, pgStringTooLong:
		return &ValidationError{Field: pgErr.ColumnName, Message: pgErr.Message}
	}
	return err
}

func constraintField(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "users_email_key":
		return "email"
	case "patients_national_id_key":
		return "national id"
	case "pharmacy_medicine_name_key":
		return "medicine name"
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "value"
}

// Status maps an error to an HTTP status code.
func Status(err error) int {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &he):
		return he.Code
	}
	return http.StatusInternalServerError
}

// Message returns the text safe to show a client. Internal errors are
// reduced to a generic message.
func Message(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("%v", he.Message)
	}
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
