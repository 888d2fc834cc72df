package repositories

import "errors"

// Common repository errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrCreateFailed = errors.New("failed to create record")
)
