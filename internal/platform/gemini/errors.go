package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrNilModel is returned when a generator is built without a model client.
	ErrNilModel = errors.New("model client cannot be nil")
)
