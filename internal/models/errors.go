package models

import "errors"

// Custom errors
var (
	ErrUnknownSport      = errors.New("unknown sport code")
	ErrUnknownScope      = errors.New("unknown board scope")
	ErrNotFound          = errors.New("record not found")
	ErrProviderUnhealthy = errors.New("odds provider unavailable")
	ErrInvalidSampleSize = errors.New("sample count must be positive")
)
