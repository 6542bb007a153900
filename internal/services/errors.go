package services

import (
	"errors"
)

// Sentinel errors so handlers can tell a 404 from a 403 from a 400.
// Wrap them with fmt.Errorf("...: %w", Err...) to add context.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)
