// Package errs holds the error taxonomy shared by the decoration engine.
// Errors are wrapped with fmt.Errorf("...: %w") and classified with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: unknown decoration name or unregistered type identifier.
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfig: malformed persisted descriptor or policy data.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrAssetMissing: a declared image asset is unreadable.
	ErrAssetMissing = errors.New("asset missing")
	// ErrAccessDenied: the identity failed the type's admission predicate.
	ErrAccessDenied = errors.New("access denied")
	// ErrUpstreamFetch: an external image or identity-graph source failed.
	ErrUpstreamFetch = errors.New("upstream fetch error")
	// ErrUnknownUser: the identity does not exist upstream. It always comes
	// wrapped together with ErrUpstreamFetch.
	ErrUnknownUser = errors.New("unknown user")
)

// ErrUnknownType is returned when a descriptor names a type missing from the
// policy table. It is an ErrInvalidConfig.
var ErrUnknownType = fmt.Errorf("unknown type: %w", ErrInvalidConfig)
