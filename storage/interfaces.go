package storage

import (
	"context"

	"wishlist-tracker/models"
)

// BatchAppender persists one normalized batch. Ping reports whether the
// store is reachable before any work is done.
type BatchAppender interface {
	Ping(ctx context.Context) error
	Append(ctx context.Context, identities []models.ItemIdentity, observations []models.Observation) (*AppendResult, error)
}

// SnapshotReader answers latest-state queries.
type SnapshotReader interface {
	CurrentSnapshot(ctx context.Context) ([]models.SnapshotRow, error)
}

// HistoryReader exposes the raw observation history and its scalar series.
type HistoryReader interface {
	History(ctx context.Context, itemID string) ([]models.Observation, error)
	PriceSeries(ctx context.Context, field PriceField) ([]string, error)
	RatingReviewPairs(ctx context.Context) ([]models.RatingReview, error)
}
