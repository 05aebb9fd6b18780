package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound    = errors.New("session not found")
	ErrDuplicateID = errors.New("duplicate session id")
)
