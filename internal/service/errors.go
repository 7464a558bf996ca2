package service

import "errors"

// Failure taxonomy for the emoji and profile lifecycles. Each adapter
// failure is wrapped with exactly one of these so handlers can branch with
// errors.Is without knowing which backend broke.
var (
	ErrUnauthenticated   = errors.New("no authenticated user")
	ErrEmptyPrompt       = errors.New("prompt is required")
	ErrGenerationFailed  = errors.New("image generation failed")
	ErrFetchFailed       = errors.New("failed to fetch generated image")
	ErrStorageFailed     = errors.New("storage operation failed")
	ErrPersistenceFailed = errors.New("database operation failed")
	// ErrNotFound covers both a missing emoji and one owned by someone
	// else; the two are indistinguishable by design.
	ErrNotFound = errors.New("emoji not found")
)
