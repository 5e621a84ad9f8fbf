package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrConflict is returned when a uniqueness rule would be broken
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when a referenced recipe, user or catalog entry is missing
	ErrNotFound = errors.New("not found")
	// ErrNotInList is returned when removing a favorite, cart entry or follow that does not exist
	ErrNotInList = errors.New("relation does not exist")
	// ErrForbidden is returned when the caller does not own the resource
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned on a failed login or password check
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenRevoked is returned when a logged-out token is presented again
	ErrTokenRevoked = errors.New("token has been revoked")
)

// ValidationError reports a bad field value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// isDuplicateError recognises unique constraint violations from either
// driver, whether or not gorm translated them.
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// isForeignKeyError recognises restrict/foreign key violations
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}
