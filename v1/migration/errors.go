package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContractMismatch is returned when an interaction's outcome differs from its expected status
	ErrContractMismatch = errors.New("contract mismatch")

	// ErrMissingDependency is returned when a dependency version is not in history
	ErrMissingDependency = errors.New("missing dependency")

	// ErrDuplicateVersion is returned when a migration with the same version was already applied
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrUnsupportedChange is returned for changes the store cannot perform
	ErrUnsupportedChange = errors.New("unsupported change")

	// ErrNotReversible is returned when rolling back a migration that cannot be undone
	ErrNotReversible = errors.New("migration not reversible")

	// ErrMigrationNotFound is returned when no history record has the requested version
	ErrMigrationNotFound = errors.New("migration not found")

	// ErrCorruptHistory is returned when a history record cannot be decoded
	ErrCorruptHistory = errors.New("corrupt migration history")

	// ErrInvalidVersion is returned for strings that are not complete semantic versions
	ErrInvalidVersion = errors.New("invalid version")

	// ErrInvalidMigration is returned for malformed migration definitions
	ErrInvalidMigration = errors.New("invalid migration")
)

// Gate names the step of the migration pipeline an error came from.
type Gate string

const (
	GateLock       Gate = "lock"
	GateContract   Gate = "contract"
	GateDependency Gate = "dependency"
	GateApply      Gate = "apply"
	GateRecord     Gate = "record"
	GateRollback   Gate = "rollback"
	GateHistory    Gate = "history"
)

// Error is returned by every Manager operation that fails. Use errors.As to
// read the gate and the changes that were performed before the failure.
//
//	var merr *migration.Error
//	if errors.As(err, &merr) && merr.Mutated() {
//	    // the store was partially changed
//	}
type Error struct {
	// Gate is the pipeline step that failed
	Gate Gate

	// Version is the migration being applied or rolled back
	Version Version

	// Applied lists the changes performed before the failure
	Applied []ChangeResult

	// Err is the cause, usually wrapping a sentinel of this package or of vectordb
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "migration %s: %s gate: %v", e.Version, e.Gate, e.Err)
	if len(e.Applied) > 0 {
		fmt.Fprintf(&b, " (after %d applied changes)", len(e.Applied))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Mutated reports whether the store was changed before the failure. When
// false the migration was rejected before any mutation. Index changes in
// Applied do not count, they never reach the store.
func (e *Error) Mutated() bool {
	return storedAny(e.Applied)
}

// GateOf returns the gate of a migration error, or "" when err is not one.
func GateOf(err error) Gate {
	var merr *Error
	if errors.As(err, &merr) {
		return merr.Gate
	}
	return ""
}

// IsRejected reports whether err is a migration error that left the store untouched.
func IsRejected(err error) bool {
	var merr *Error
	return errors.As(err, &merr) && !merr.Mutated()
}

// MismatchError details a contract interaction whose outcome differed from its expectation.
type MismatchError struct {
	Consumer    string
	Interaction string
	Expected    ResponseStatus
	Actual      ResponseStatus

	// Cause is the store error behind the actual outcome, if any
	Cause error
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("%v: consumer %q interaction %q expected %s, got %s",
		ErrContractMismatch, e.Consumer, e.Interaction, e.Expected, e.Actual)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MismatchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrContractMismatch}
	}
	return []error{ErrContractMismatch, e.Cause}
}
