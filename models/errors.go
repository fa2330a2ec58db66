package models

import "errors"

// Error taxonomy for the acquisition pipeline. Call sites wrap these with
// fmt.Errorf("...: %w", ...) and callers discriminate with errors.Is.
var (
	// URL resolution
	ErrInvalidURL       = errors.New("invalid listing url")
	ErrMissingDates     = errors.New("check-in or check-out missing from url")
	ErrInvalidDate      = errors.New("unparseable date in url")
	ErrInvalidDateRange = errors.New("check-out must be after check-in")

	// Cost calculation
	ErrInvalidCost = errors.New("invalid cost input")

	// Acquisition
	ErrMalformedPayload = errors.New("malformed listing payload")
	ErrFetch            = errors.New("listing fetch failed")

	// Store
	ErrNotFound = errors.New("listing not found")
	ErrStoreIO  = errors.New("store i/o failure")
)
