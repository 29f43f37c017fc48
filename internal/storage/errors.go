package storage

import "errors"

// Common storage errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid view state")
)
