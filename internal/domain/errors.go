package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateID       = errors.New("duplicate job id")
	ErrInvalidTransition = errors.New("invalid status transition")
)
