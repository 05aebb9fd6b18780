package scoring

import "errors"

// Sentinel kinds for scoring engine failures.
var (
	// ErrEngineUnreachable covers timeouts and refused connections.
	ErrEngineUnreachable = errors.New("scoring engine unreachable")
	// ErrEngineUnauthorized covers rejected internal tokens.
	ErrEngineUnauthorized = errors.New("scoring engine rejected credentials")
	// ErrEngineError covers every other engine failure, including
	// malformed or out-of-range responses.
	ErrEngineError = errors.New("scoring engine error")
)

// Kind maps a scoring failure to its metric label.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEngineUnreachable):
		return "unreachable"
	case errors.Is(err, ErrEngineUnauthorized):
		return "unauthorized"
	default:
		return "engine_error"
	}
}
