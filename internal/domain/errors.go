package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidPriority is returned when a ticket priority is not one of
	// the recognized values.
	ErrInvalidPriority = errors.New("invalid ticket priority")

	// ErrInvalidStatus is returned when a ticket status is not one of
	// the recognized values.
	ErrInvalidStatus = errors.New("invalid ticket status")

	// ErrInvalidTrigger is returned when a generation trigger is neither
	// automatic nor manual.
	ErrInvalidTrigger = errors.New("invalid generation trigger")

	// ErrInvalidAttributes is returned when free-form attributes are not
	// valid JSON.
	ErrInvalidAttributes = errors.New("attributes must be valid JSON")
)
