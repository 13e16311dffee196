package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the base kind for absent profiles, columns and handlers.
	ErrNotFound = errors.New("grid: not found")
	// ErrHandlerNotFound indicates no type handler matched the grid block.
	ErrHandlerNotFound = fmt.Errorf("%w: type handler", ErrNotFound)
	// ErrColumnNotFound indicates the column ID is not configured.
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	// ErrProfileUnavailable indicates the profile does not exist or is not
	// available to the acting principal.
	ErrProfileUnavailable = fmt.Errorf("%w: profile unavailable", ErrNotFound)

	// ErrPermissionDenied indicates a failed non-graceful capability check.
	ErrPermissionDenied = errors.New("grid: permission denied")

	// ErrInvalidState is the base kind for requests the aggregate cannot honor.
	ErrInvalidState = errors.New("grid: invalid state")
	// ErrNoProfileAvailable indicates profile resolution found an empty
	// available set.
	ErrNoProfileAvailable = fmt.Errorf("%w: no profile available", ErrInvalidState)
	// ErrUnknownType indicates a forced type code missing from the registry.
	ErrUnknownType = fmt.Errorf("%w: unknown type code", ErrInvalidState)
	// ErrNotPersisted indicates an operation that requires a grid identity.
	ErrNotPersisted = fmt.Errorf("%w: grid is not persisted", ErrInvalidState)

	// ErrInvalidArgument indicates caller input that failed validation.
	ErrInvalidArgument = errors.New("grid: invalid argument")

	// ErrStorage is the base kind matched by StorageError.
	ErrStorage = errors.New("grid: storage")
)

// PermissionError records the action a principal was denied.
type PermissionError struct {
	Action    Action
	Principal Principal
}

func (e *PermissionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("grid: permission denied action=%s user=%s role=%s", e.Action, e.Principal.UserID, e.Principal.RoleID)
}

// Is lets errors.Is(err, ErrPermissionDenied) match.
func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// StorageError wraps failures reported by storage adapters. The core never
// creates or rewraps these; it returns them to the caller unchanged.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("grid: storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrStorage) match.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// RuleError captures type matching rule failures.
type RuleError struct {
	Engine string
	Rule   string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("grid: %s rule %s: %v", e.Engine, describeRule(e.Rule), e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeRule(rule string) string {
	if rule == "" {
		return "rule=<empty>"
	}
	return fmt.Sprintf("rule=%q", rule)
}

func wrapRuleError(engine, rule string, err error) error {
	if err == nil {
		return nil
	}
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		if ruleErr.Engine == "" {
			ruleErr.Engine = engine
		}
		if ruleErr.Rule == "" {
			ruleErr.Rule = rule
		}
		return ruleErr
	}
	return &RuleError{Engine: engine, Rule: rule, Err: err}
}
