package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Repositories and services wrap these so handlers can map them to HTTP status codes
// without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)
