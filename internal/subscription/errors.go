package subscription

import "errors"

// Sentinel errors returned by the pause/resume engine. Handlers map these to
// stable API codes.
var (
	ErrNotFound           = errors.New("subscription not found")
	ErrNotActive          = errors.New("subscription is not active")
	ErrAlreadyPaused      = errors.New("subscription is already paused")
	ErrPauseLimitExceeded = errors.New("subscription pause limit reached")
	ErrDurationTooLong    = errors.New("pause duration exceeds the maximum")
	ErrInvalidDuration    = errors.New("pause duration must be at least one day")
	ErrNoEligibleDelivery = errors.New("no pending delivery is far enough out to pause")
	ErrNotPaused          = errors.New("subscription is not paused")
	ErrInsufficientNotice = errors.New("resume date is inside the notice window")
)
