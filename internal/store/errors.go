package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed covers commit failures and transactions aborted by
	// serialization conflicts or deadlocks. Callers may retry them.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrPerformanceNotFound means the learner never attempted the topic.
	ErrPerformanceNotFound = fmt.Errorf("%w: topic performance", ErrNotFound)

	// ErrAttemptExists means the attempt ID was already folded in. A client
	// retrying a submission gets this instead of a second fold-in.
	ErrAttemptExists = fmt.Errorf("%w: attempt", ErrDuplicate)
)
