package models

import "fmt"

// NotAvailable is the marker shown for a field that could not be extracted.
// It is distinct from an empty string, which is a legitimately empty value.
const NotAvailable = "N/A"

// Field is a per-field extraction result: either a value or "not available".
type Field[T any] struct {
	Value T
	Valid bool
}

// Available wraps an extracted value.
func Available[T any](v T) Field[T] {
	return Field[T]{Value: v, Valid: true}
}

// Unavailable returns the "not available" variant.
func Unavailable[T any]() Field[T] {
	return Field[T]{}
}

// Get returns the value and whether it is available.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Valid
}

// OrElse returns the value, or fallback when unavailable.
func (f Field[T]) OrElse(fallback T) T {
	if !f.Valid {
		return fallback
	}
	return f.Value
}

func (f Field[T]) String() string {
	if !f.Valid {
		return NotAvailable
	}
	return fmt.Sprint(f.Value)
}

// Rating is a star rating together with the scale it was given on,
// e.g. 4.5 of 5.
type Rating struct {
	Value float64
	Scale float64
}

// Normalized returns the rating as a fraction of its scale in [0,1].
func (r Rating) Normalized() float64 {
	if r.Scale <= 0 {
		return 0
	}
	return r.Value / r.Scale
}

func (r Rating) String() string {
	return fmt.Sprintf("%g/%g", r.Value, r.Scale)
}
