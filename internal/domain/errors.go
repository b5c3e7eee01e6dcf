package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrJobActive       = errors.New("job already running")
	ErrTerminalState   = errors.New("job is in a terminal state")
	ErrContentNotReady = errors.New("content not ready")
	ErrNoImageWarning  = errors.New("job has no image warning")
	ErrMaxAttempts     = errors.New("max attempts reached")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrProviderFailure = errors.New("provider failure")
)
