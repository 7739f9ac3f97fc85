package insights

import "errors"

var (
	// ErrInvalidSelector is returned when the month selector is missing or not YYYY-MM.
	ErrInvalidSelector = errors.New("invalid month selector")

	// ErrFetchFailed wraps any error returned by the record fetcher.
	ErrFetchFailed = errors.New("fetch expenses")
)
