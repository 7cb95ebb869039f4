package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Version errors
	ErrMalformedVersion = errors.New("malformed version")

	// Target errors
	ErrTargetUnreachable    = errors.New("target unreachable")
	ErrNotThePlatform       = errors.New("target is not a moodle instance")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("credentials must be in user:password form")
	ErrInvalidHeader        = errors.New("invalid header")

	// Module errors
	ErrModuleLoad           = errors.New("module load error")
	ErrModuleExecutionFault = errors.New("module execution fault")
	ErrModuleTimeout        = errors.New("module timed out")
	ErrNoExploitStep        = errors.New("module has no exploit step")

	// Corpus errors
	ErrCorpusIntegrity = errors.New("corpus integrity violation")
	ErrCorpusNotFound  = errors.New("corpus not found")

	// Scan errors
	ErrInvalidTransition = errors.New("invalid scan state transition")
	ErrEmptyTarget       = errors.New("target cannot be empty")

	// Repository errors
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")
)

// ModuleLoadError reports a single module definition that could not be loaded.
type ModuleLoadError struct {
	Source string
	Err    error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("load module %s: %v", e.Source, e.Err)
}

func (e *ModuleLoadError) Unwrap() []error {
	return []error{ErrModuleLoad, e.Err}
}

// ModuleFaultError reports a check or exploit step that failed unexpectedly.
type ModuleFaultError struct {
	Module string
	Step   string
	Err    error
}

func (e *ModuleFaultError) Error() string {
	return fmt.Sprintf("module %q %s: %v", e.Module, e.Step, e.Err)
}

func (e *ModuleFaultError) Unwrap() []error {
	return []error{ErrModuleExecutionFault, e.Err}
}

// CorpusIntegrityError signals that a refreshed data set shrank compared to the
// previous snapshot.
type CorpusIntegrityError struct {
	Name   string
	Before int
	After  int
	Backup string
}

func (e *CorpusIntegrityError) Error() string {
	return fmt.Sprintf("%s has %d entries, fewer than the previous %d (previous data kept in %s)",
		e.Name, e.After, e.Before, e.Backup)
}

func (e *CorpusIntegrityError) Unwrap() error {
	return ErrCorpusIntegrity
}
