package wishlist

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionStart means the browser session could not be established.
	ErrSessionStart = errors.New("browser session could not be started")

	// ErrNoItems means the page exposed no item container once the wait
	// policy was exhausted.
	ErrNoItems = errors.New("no item containers found")

	// ErrItemNameNotFound is fatal for a single item.
	ErrItemNameNotFound = errors.New("item name not found")

	// ErrByLineNotFound is fatal for a single item.
	ErrByLineNotFound = errors.New("item byline not found")
)

// LoadError reports that one list page could not be materialised.
// It is fatal for that list only.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExtractError reports a required field that could not be extracted.
type ExtractError struct {
	Field string
	Err   error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Field, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
