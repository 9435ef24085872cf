package services

import "errors"

// Errors returned by the services. Handlers map them onto HTTP statuses; any
// other error is treated as internal.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)
