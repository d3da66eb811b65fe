package models

import "time"

// ExtractedFieldSet is everything the field extractors produced for one item.
// Name is required; an item without it never gets this far.
type ExtractedFieldSet struct {
	Name         string
	ByLine       string
	Price        Field[string]
	UsedNewPrice Field[string]
	Rating       Field[Rating]
	ReviewCount  int
	ItemID       string
	ExternalID   string
}

// ItemIdentity is the slowly-changing identity of one catalog item.
// ItemID is the immutable business key; the other fields are last-write-wins.
type ItemIdentity struct {
	ItemID     string
	ExternalID string
	Name       string
	ByLine     string
	ListName   string
}

// Observation is one timestamped capture of an item's variable attributes.
// Observations are append-only.
type Observation struct {
	ItemID       string
	CapturedAt   time.Time
	ListName     string
	Price        Field[string]
	UsedNewPrice Field[string]
	Rating       Field[Rating]
	ReviewCount  int
}

// SnapshotRow is an identity joined with its most recent observation.
// Items never observed carry a zero CapturedAt and unavailable fields.
type SnapshotRow struct {
	ItemIdentity

	CapturedAt   time.Time
	ObservedIn   string
	Price        Field[string]
	UsedNewPrice Field[string]
	Rating       Field[Rating]
	ReviewCount  int
}

// HasObservation reports whether any observation exists for the item.
func (r SnapshotRow) HasObservation() bool {
	return !r.CapturedAt.IsZero()
}

// RatingReview pairs a rating with the review count captured alongside it.
type RatingReview struct {
	Rating      Rating
	ReviewCount int
}
