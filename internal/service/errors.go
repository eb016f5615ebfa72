package service

import "errors"

var (
	// ErrValidation marks input rejected before any store access.
	// Wrapped with a human-readable detail.
	ErrValidation = errors.New("validation failed")

	// ErrSessionNotFound means the booking session expired or never existed.
	ErrSessionNotFound = errors.New("booking session not found")

	// ErrWrongStep means the requested workflow action does not apply
	// to the session's current step.
	ErrWrongStep = errors.New("action not allowed in current step")
)
