package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("event store unavailable")
	ErrReportPersist    = errors.New("failed to persist analytics report")
	ErrInvalidRating    = errors.New("invalid rating value")
	ErrInvalidEvent     = errors.New("invalid analytics event")
)
