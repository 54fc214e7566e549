package generation

import "errors"

var (
	ErrGenerationFailed = errors.New("failed to generate questions")
	ErrInvalidResponse  = errors.New("invalid response from language model")
	ErrContentBlocked   = errors.New("content blocked by language model safety filters")
	ErrInvalidConfig    = errors.New("invalid generator configuration")
	ErrInvalidRequest   = errors.New("invalid question request")

	// ErrTransientFailure marks failures worth retrying: rate limits, server
	// errors, timeouts and dropped connections.
	ErrTransientFailure = errors.New("transient error during question generation")
)

// IsRetryable reports whether err may succeed when the same request is sent again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientFailure)
}
