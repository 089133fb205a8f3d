package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrInvalidArgument marks input the caller must fix.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden marks an authenticated caller acting outside their profile.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a missing resource, or one the caller may not see.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness rule violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState marks an operation attempted in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
)

// isDuplicateKey reports unique constraint violations. Drivers opened without
// TranslateError still surface the raw message, so both are checked.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
