package model

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrForeignKey        = errors.New("referenced record does not exist")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrNotConfigured     = errors.New("not configured")

	// ErrPermanent marks a publish failure that must not be retried.
	ErrPermanent = errors.New("permanent publish failure")
)
