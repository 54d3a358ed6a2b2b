package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the harness.
var (
	// ErrConfiguration is returned for setup defects: missing required settings,
	// unknown override fields and similar. These are never test-outcome signals.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownField is returned when a field name is not part of the user model.
	ErrUnknownField = fmt.Errorf("%w: unknown field", ErrConfiguration)

	// ErrSchema is returned when decoded data does not have the shape of a user.
	ErrSchema = errors.New("schema mismatch")
)
