package services

import "errors"

// Sentinel errors returned by the views. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidValue      = errors.New("invalid value")
	ErrUnknownView       = errors.New("unknown view")
	ErrViewNotMounted    = errors.New("view not mounted")
	ErrScanInProgress    = errors.New("scan already in progress")
)
