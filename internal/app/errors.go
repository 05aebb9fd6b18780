package service

import "errors"

// Sentinel kinds for orchestration errors.
var (
	ErrInvalidUserID = errors.New("invalid user id")
)
