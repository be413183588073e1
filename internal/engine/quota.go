package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxRequests bounds the size of one batch. Every outcome of a run
// is held in memory and journaled in a single transaction.
const DefaultMaxRequests = 100_000

// BatchTooLargeError is returned by Run when a batch exceeds the engine's
// request quota. Nothing is folded or journaled.
type BatchTooLargeError struct {
	Requests int
	Limit    int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch exceeds request quota: %d requests > %d limit", e.Requests, e.Limit)
}

// IsQuotaError reports whether err is a BatchTooLargeError.
func IsQuotaError(err error) bool {
	var be *BatchTooLargeError
	return errors.As(err, &be)
}

// WithMaxRequests sets the request quota per batch. Default:
// DefaultMaxRequests. Use a small value to test quota handling.
func WithMaxRequests(n int) Option {
	return func(e *Engine) { e.maxRequests = n }
}

// checkQuota rejects batches above the quota.
func (e *Engine) checkQuota(n int) error {
	if n > e.maxRequests {
		return &BatchTooLargeError{Requests: n, Limit: e.maxRequests}
	}
	return nil
}
