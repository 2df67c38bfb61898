package xerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
)

// Payment links
var (
	ErrLinkUnavailable   = errors.New("payment link is no longer active")
	ErrBuyerMismatch     = errors.New("payment link is assigned to a different buyer")
	ErrInvalidTransition = errors.New("invalid payment link status transition")
)

// Checkout steps
var (
	ErrStepDisabled     = errors.New("step is disabled")
	ErrStepCompleted    = errors.New("step is already completed")
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrNoWalletToVerify = errors.New("no wallet submitted for verification")
	ErrInvalidKYCResult = errors.New("invalid decision: must be 'KYC_PASS' or 'KYC_FAIL'")
)

// NotFoundError names the missing entity. errors.Is(err, ErrNotFound) holds.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StateError is returned when a caller acts on a checkout step that is not
// open for action. It matches ErrStepCompleted for a completed step and
// ErrStepDisabled otherwise.
type StateError struct {
	Step   string
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("step %s is %s", e.Step, e.Status)
}

func (e *StateError) Is(target error) bool {
	if e.Status == "completed" {
		return target == ErrStepCompleted
	}
	return target == ErrStepDisabled
}

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}
