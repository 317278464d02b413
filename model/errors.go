package model

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrConflict          = errors.New("conflict")
	ErrUpstream          = errors.New("external service failure")
	ErrSignature         = errors.New("signature verification failed")
	ErrPartialAllocation = errors.New("partial allocation")
)
