package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-tracker/config"
	"wishlist-tracker/models"
	"wishlist-tracker/utils"
)

var (
	t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(24 * time.Hour)
	t2 = t1.Add(24 * time.Hour)
)

func newSQLiteStore(t *testing.T) *TemporalStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "wishlist.db")
	return NewTemporalStore(config.DriverSQLite, path, utils.Discard())
}

func identity(id, name string) models.ItemIdentity {
	return models.ItemIdentity{ItemID: id, ExternalID: "ext-" + id, Name: name, ByLine: "by Someone", ListName: "Books"}
}

func observation(id string, at time.Time, price string) models.Observation {
	obs := models.Observation{
		ItemID:      id,
		CapturedAt:  at,
		ListName:    "Books",
		Price:       models.Unavailable[string](),
		Rating:      models.Available(models.Rating{Value: 4.5, Scale: 5}),
		ReviewCount: 10,
	}
	if price != "" {
		obs.Price = models.Available(price)
	}
	return obs
}

func snapshotByID(t *testing.T, s *TemporalStore) map[string]models.SnapshotRow {
	t.Helper()
	rows, err := s.CurrentSnapshot(context.Background())
	require.NoError(t, err)
	byID := make(map[string]models.SnapshotRow, len(rows))
	for _, r := range rows {
		byID[r.ItemID] = r
	}
	return byID
}

func TestAppendUpsertsIdentityLastWriteWins(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, []models.ItemIdentity{identity("A1", "Old title")}, nil)
	require.NoError(t, err)

	renamed := identity("A1", "New title")
	renamed.ListName = "Gifts"
	res, err := s.Append(ctx, []models.ItemIdentity{renamed}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Identities)

	snap := snapshotByID(t, s)
	require.Len(t, snap, 1)
	assert.Equal(t, "New title", snap["A1"].Name)
	assert.Equal(t, "Gifts", snap["A1"].ListName)
}

func TestSnapshotPicksLatestObservationRegardlessOfInsertOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	// newest first, then an older capture arrives later
	_, err := s.Append(ctx,
		[]models.ItemIdentity{identity("A1", "Book")},
		[]models.Observation{observation("A1", t2, "$7.00"), observation("A1", t0, "$9.00")})
	require.NoError(t, err)
	_, err = s.Append(ctx, nil, []models.Observation{observation("A1", t1, "$8.00")})
	require.NoError(t, err)

	row := snapshotByID(t, s)["A1"]
	assert.True(t, row.HasObservation())
	assert.Equal(t, t2, row.CapturedAt)
	assert.Equal(t, models.Available("$7.00"), row.Price)
}

func TestSnapshotLatestObservationAcrossLists(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	books := identity("A1", "Book")
	onBooks := observation("A1", t1, "$5.00")
	_, err := s.Append(ctx, []models.ItemIdentity{books}, []models.Observation{onBooks})
	require.NoError(t, err)

	// the same item scraped later from another list, carrying an older capture
	gifts := identity("A1", "Book")
	gifts.ListName = "Gifts"
	onGifts := observation("A1", t0, "$9.00")
	onGifts.ListName = "Gifts"
	_, err = s.Append(ctx, []models.ItemIdentity{gifts}, []models.Observation{onGifts})
	require.NoError(t, err)

	snap := snapshotByID(t, s)
	require.Len(t, snap, 1)

	row := snap["A1"]
	assert.Equal(t, models.Available("$5.00"), row.Price)
	assert.Equal(t, t1, row.CapturedAt)
	assert.Equal(t, "Books", row.ObservedIn)
	assert.Equal(t, "Gifts", row.ListName)
}

func TestSnapshotIncludesItemsWithoutObservations(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx,
		[]models.ItemIdentity{identity("A1", "Observed"), identity("B2", "Never observed")},
		[]models.Observation{observation("A1", t0, "$1.00")})
	require.NoError(t, err)

	snap := snapshotByID(t, s)
	require.Len(t, snap, 2)

	unseen := snap["B2"]
	assert.False(t, unseen.HasObservation())
	assert.False(t, unseen.Price.Valid)
	assert.False(t, unseen.Rating.Valid)
	assert.Equal(t, "Never observed", unseen.Name)
}

func TestTwoRunsKeepHistoryAndShowLatestPrice(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	ids := []models.ItemIdentity{identity("A1", "Book")}

	_, err := s.Append(ctx, ids, []models.Observation{observation("A1", t0, "$9.99")})
	require.NoError(t, err)
	_, err = s.Append(ctx, ids, []models.Observation{observation("A1", t1, "$8.49")})
	require.NoError(t, err)

	snap := snapshotByID(t, s)
	require.Len(t, snap, 1)
	assert.Equal(t, "$8.49", snap["A1"].Price.Value)

	history, err := s.History(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "$9.99", history[0].Price.Value)
	assert.Equal(t, "$8.49", history[1].Price.Value)
	assert.Equal(t, t0, history[0].CapturedAt)
}

func TestUnavailableFieldsRoundTripAsNull(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	obs := observation("A1", t0, "")
	obs.Rating = models.Unavailable[models.Rating]()
	obs.UsedNewPrice = models.Available("$3.10")
	_, err := s.Append(ctx, []models.ItemIdentity{identity("A1", "Book")}, []models.Observation{obs})
	require.NoError(t, err)

	history, err := s.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Price.Valid)
	assert.False(t, history[0].Rating.Valid)
	assert.Equal(t, models.Available("$3.10"), history[0].UsedNewPrice)
}

func TestPriceSeriesAndRatingPairs(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	unrated := observation("B2", t2, "$5.00")
	unrated.Rating = models.Unavailable[models.Rating]()
	used := observation("A1", t1, "")
	used.UsedNewPrice = models.Available("$2.00")

	_, err := s.Append(ctx,
		[]models.ItemIdentity{identity("A1", "One"), identity("B2", "Two")},
		[]models.Observation{observation("A1", t0, "$9.99"), used, unrated})
	require.NoError(t, err)

	prices, err := s.PriceSeries(ctx, ListPrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"$9.99", "$5.00"}, prices)

	usedPrices, err := s.PriceSeries(ctx, UsedNewPrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"$2.00"}, usedPrices)

	pairs, err := s.RatingReviewPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, models.Rating{Value: 4.5, Scale: 5}, pairs[0].Rating)
	assert.Equal(t, 10, pairs[0].ReviewCount)
}

func TestAppendRowFailuresDoNotAbortBatch(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	res, err := s.Append(ctx,
		[]models.ItemIdentity{identity("", "No id"), identity("A1", "Book")},
		[]models.Observation{
			observation("A1", t0, "$1.00"),
			observation("ghost", t0, "$2.00"), // no identity: foreign key violation
		})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Identities)
	assert.Equal(t, 1, res.Observations)
	require.Len(t, res.Failures, 2)
	assert.ErrorIs(t, res.Failures[0], ErrEmptyItemID)
	assert.Equal(t, "records", res.Failures[1].Table)
	assert.Equal(t, "ghost", res.Failures[1].ItemID)

	history, err := s.History(ctx, "")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUnreachableStoreIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := NewTemporalStore(config.DriverSQLite, filepath.Join(blocker, "wishlist.db"), utils.Discard())

	_, err := s.Append(context.Background(), []models.ItemIdentity{identity("A1", "Book")}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))

	var unavailableErr *StorageUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
	assert.Equal(t, "open", unavailableErr.Op)

	_, err = s.CurrentSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	assert.ErrorIs(t, s.Ping(context.Background()), ErrStorageUnavailable)
}

func TestCancelledContextIsNotUnavailable(t *testing.T) {
	s := newSQLiteStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, []models.ItemIdentity{identity("A1", "Book")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrStorageUnavailable))

	_, err = s.CurrentSnapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrStorageUnavailable))

	err = s.Ping(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrStorageUnavailable))
}

func TestRebind(t *testing.T) {
	pg := NewTemporalStoreWithOpener(config.DriverPostgres, nil, utils.Discard())
	lite := NewTemporalStoreWithOpener(config.DriverSQLite, nil, utils.Discard())

	query := `SELECT * FROM records WHERE item_id = ? AND captured_at > ?`
	assert.Equal(t, `SELECT * FROM records WHERE item_id = $1 AND captured_at > $2`, pg.rebind(query))
	assert.Equal(t, query, lite.rebind(query))
}
