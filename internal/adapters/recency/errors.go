package recency

import "errors"

// Sentinel kinds for recency cache errors.
var (
	ErrClosed = errors.New("recency cache closed")
)
