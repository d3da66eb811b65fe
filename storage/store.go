package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"wishlist-tracker/config"
	"wishlist-tracker/models"
	"wishlist-tracker/utils"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

//go:embed schema/postgres.sql
var postgresSchema string

// PriceField selects which captured price column a series is read from.
type PriceField int

const (
	ListPrice PriceField = iota
	UsedNewPrice
)

func (f PriceField) column() string {
	if f == UsedNewPrice {
		return "price_used_new"
	}
	return "price"
}

// Opener returns a fresh database handle. The store calls it once per
// append or query and closes the handle afterwards.
type Opener func() (*sql.DB, error)

// TemporalStore keeps item identities and their append-only observations,
// and reconstructs the latest state of every item on demand.
type TemporalStore struct {
	driver string
	open   Opener
	logger *utils.Logger
	ping   *utils.RetryConfig
	now    func() time.Time
}

// NewTemporalStore creates a store for a database/sql driver ("sqlite" or
// "postgres") and its DSN. For SQLite the DSN is a file path.
func NewTemporalStore(driver, dsn string, logger *utils.Logger) *TemporalStore {
	open := func() (*sql.DB, error) {
		if driver == config.DriverSQLite && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		return sql.Open(driver, dsn)
	}
	return NewTemporalStoreWithOpener(driver, open, logger)
}

// NewTemporalStoreWithOpener creates a store around a custom Opener.
func NewTemporalStoreWithOpener(driver string, open Opener, logger *utils.Logger) *TemporalStore {
	return &TemporalStore{
		driver: driver,
		open:   open,
		logger: logger,
		ping:   &utils.RetryConfig{MaxAttempts: 1, Logger: logger},
		now:    time.Now,
	}
}

// WithPingRetry retries the initial ping, useful while a database
// container is still starting.
func (s *TemporalStore) WithPingRetry(attempts int, delay time.Duration) *TemporalStore {
	s.ping = &utils.RetryConfig{MaxAttempts: attempts, BaseDelay: delay, Logger: s.logger}
	return s
}

// Ping opens, verifies and migrates the store without touching any rows.
func (s *TemporalStore) Ping(ctx context.Context) error {
	db, err := s.connect(ctx)
	if err != nil {
		return err
	}
	return db.Close()
}

// connect opens, verifies and migrates the database. Any failure here
// means storage is unavailable for this call, unless ctx ended first.
func (s *TemporalStore) connect(ctx context.Context) (*sql.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := s.open()
	if err != nil {
		return nil, unavailable("open", err)
	}

	if s.driver == config.DriverSQLite {
		// SQLite only supports one writer
		db.SetMaxOpenConns(1)
	}

	if err := s.ping.Do("ping", func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, storageErr(ctx, "ping", err)
	}

	if err := s.migrate(ctx, db); err != nil {
		db.Close()
		return nil, storageErr(ctx, "migrate", err)
	}
	return db, nil
}

func (s *TemporalStore) migrate(ctx context.Context, db *sql.DB) error {
	schema := postgresSchema
	if s.driver == config.DriverSQLite {
		schema = sqliteSchema
		for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 10000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const upsertItemSQL = `
	INSERT INTO items (item_id, external_id, name, by_line, list_name, first_seen, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (item_id) DO UPDATE SET
		external_id = excluded.external_id,
		name        = excluded.name,
		by_line     = excluded.by_line,
		list_name   = excluded.list_name,
		updated_at  = excluded.updated_at`

const insertRecordSQL = `
	INSERT INTO records (item_id, captured_at, list_name, price, price_used_new, rating_value, rating_scale, num_reviews)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// AppendResult counts what one Append call wrote and which rows failed.
type AppendResult struct {
	Identities   int
	Observations int
	Failures     []*RowError
}

// Append upserts identities (last write wins on every non-key field) and
// inserts every observation as a new row. Rows that fail individually are
// reported in the result while the rest of the batch continues. The call
// commits as a unit, so when storage is unavailable nothing from it is
// visible.
func (s *TemporalStore) Append(ctx context.Context, identities []models.ItemIdentity, observations []models.Observation) (*AppendResult, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(ctx, "begin", err)
	}
	defer tx.Rollback()

	res := &AppendResult{}
	seenAt := s.now().UnixNano()

	for _, id := range identities {
		err := s.insertRow(ctx, tx, id.ItemID, upsertItemSQL,
			id.ItemID, id.ExternalID, id.Name, id.ByLine, id.ListName, seenAt, seenAt)
		if err != nil {
			if rowErr, ok := s.asRowError(err, "items", id.ItemID); ok {
				res.Failures = append(res.Failures, rowErr)
				continue
			}
			return nil, err
		}
		res.Identities++
	}

	for _, obs := range observations {
		rating, hasRating := obs.Rating.Get()
		err := s.insertRow(ctx, tx, obs.ItemID, insertRecordSQL,
			obs.ItemID,
			obs.CapturedAt.UnixNano(),
			obs.ListName,
			nullString(obs.Price),
			nullString(obs.UsedNewPrice),
			nullFloat(rating.Value, hasRating),
			nullFloat(rating.Scale, hasRating),
			obs.ReviewCount,
		)
		if err != nil {
			if rowErr, ok := s.asRowError(err, "records", obs.ItemID); ok {
				res.Failures = append(res.Failures, rowErr)
				continue
			}
			return nil, err
		}
		res.Observations++
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr(ctx, "commit", err)
	}

	s.logger.Debug("[store] appended %d identities, %d observations (%d failed rows)",
		res.Identities, res.Observations, len(res.Failures))
	return res, nil
}

// insertRow runs one statement inside its own savepoint so a failing row
// can be undone without aborting the surrounding transaction.
func (s *TemporalStore) insertRow(ctx context.Context, tx *sql.Tx, itemID, query string, args ...any) error {
	if strings.TrimSpace(itemID) == "" {
		return ErrEmptyItemID
	}
	if _, err := tx.ExecContext(ctx, "SAVEPOINT append_row"); err != nil {
		return storageErr(ctx, "savepoint", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(query), args...); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT append_row"); rbErr != nil {
			return storageErr(ctx, "rollback to savepoint", rbErr)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT append_row"); err != nil {
		return storageErr(ctx, "release savepoint", err)
	}
	return nil
}

func (s *TemporalStore) asRowError(err error, table, itemID string) (*RowError, bool) {
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, false
	}
	rowErr := &RowError{Table: table, ItemID: itemID, Err: err}
	s.logger.Warn("[store] %v", rowErr)
	return rowErr, true
}

// snapshotSQL joins every identity to its single latest observation.
// Ties on captured_at are broken by insertion order.
const snapshotSQL = `
	SELECT i.item_id, i.external_id, i.name, i.by_line, i.list_name,
	       r.captured_at, r.list_name, r.price, r.price_used_new,
	       r.rating_value, r.rating_scale, r.num_reviews
	FROM items i
	LEFT JOIN records r ON r.id = (
		SELECT r2.id FROM records r2
		WHERE r2.item_id = i.item_id
		ORDER BY r2.captured_at DESC, r2.id DESC
		LIMIT 1
	)`

// CurrentSnapshot returns one row per known item carrying the fields of its
// most recent observation. Items never observed are included with
// unavailable observation fields. Row order is unspecified.
func (s *TemporalStore) CurrentSnapshot(ctx context.Context) ([]models.SnapshotRow, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, snapshotSQL)
	if err != nil {
		return nil, fmt.Errorf("store: snapshot: %w", err)
	}
	defer rows.Close()

	var snapshot []models.SnapshotRow
	for rows.Next() {
		var (
			row         models.SnapshotRow
			capturedAt  sql.NullInt64
			observedIn  sql.NullString
			price       sql.NullString
			usedNew     sql.NullString
			ratingValue sql.NullFloat64
			ratingScale sql.NullFloat64
			reviews     sql.NullInt64
		)
		if err := rows.Scan(
			&row.ItemID, &row.ExternalID, &row.Name, &row.ByLine, &row.ListName,
			&capturedAt, &observedIn, &price, &usedNew,
			&ratingValue, &ratingScale, &reviews,
		); err != nil {
			return nil, fmt.Errorf("store: scan snapshot row: %w", err)
		}
		if capturedAt.Valid {
			row.CapturedAt = fromUnixNano(capturedAt.Int64)
		}
		row.ObservedIn = observedIn.String
		row.Price = fieldFromNull(price)
		row.UsedNewPrice = fieldFromNull(usedNew)
		row.Rating = ratingFromNull(ratingValue, ratingScale)
		row.ReviewCount = int(reviews.Int64)
		snapshot = append(snapshot, row)
	}
	return snapshot, rows.Err()
}

// History returns every observation of itemID in capture order. An empty
// itemID returns the full history of all items.
func (s *TemporalStore) History(ctx context.Context, itemID string) ([]models.Observation, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT item_id, captured_at, list_name, price, price_used_new,
	                 rating_value, rating_scale, num_reviews
	          FROM records`
	var args []any
	if itemID != "" {
		query += ` WHERE item_id = ?`
		args = append(args, itemID)
	}
	query += ` ORDER BY captured_at, id`

	rows, err := db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()

	var history []models.Observation
	for rows.Next() {
		var (
			obs         models.Observation
			capturedAt  int64
			price       sql.NullString
			usedNew     sql.NullString
			ratingValue sql.NullFloat64
			ratingScale sql.NullFloat64
		)
		if err := rows.Scan(&obs.ItemID, &capturedAt, &obs.ListName, &price, &usedNew,
			&ratingValue, &ratingScale, &obs.ReviewCount); err != nil {
			return nil, fmt.Errorf("store: scan history row: %w", err)
		}
		obs.CapturedAt = fromUnixNano(capturedAt)
		obs.Price = fieldFromNull(price)
		obs.UsedNewPrice = fieldFromNull(usedNew)
		obs.Rating = ratingFromNull(ratingValue, ratingScale)
		history = append(history, obs)
	}
	return history, rows.Err()
}

// PriceSeries returns every captured price string of the chosen kind, in
// capture order. Unavailable prices are left out.
func (s *TemporalStore) PriceSeries(ctx context.Context, field PriceField) ([]string, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	col := field.column()
	rows, err := db.QueryContext(ctx,
		`SELECT `+col+` FROM records WHERE `+col+` IS NOT NULL ORDER BY captured_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: price series: %w", err)
	}
	defer rows.Close()

	var prices []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// RatingReviewPairs returns (rating, review count) for every observation
// that carries a rating, in capture order.
func (s *TemporalStore) RatingReviewPairs(ctx context.Context) ([]models.RatingReview, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT rating_value, rating_scale, num_reviews
		FROM records
		WHERE rating_value IS NOT NULL AND rating_scale IS NOT NULL
		ORDER BY captured_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: rating pairs: %w", err)
	}
	defer rows.Close()

	var pairs []models.RatingReview
	for rows.Next() {
		var p models.RatingReview
		if err := rows.Scan(&p.Rating.Value, &p.Rating.Scale, &p.ReviewCount); err != nil {
			return nil, fmt.Errorf("store: scan rating pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// rebind rewrites ? placeholders to $N for Postgres.
func (s *TemporalStore) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nullString(f models.Field[string]) any {
	if !f.Valid {
		return nil
	}
	return f.Value
}

func nullFloat(v float64, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

func fieldFromNull(ns sql.NullString) models.Field[string] {
	if !ns.Valid {
		return models.Unavailable[string]()
	}
	return models.Available(ns.String)
}

func ratingFromNull(value, scale sql.NullFloat64) models.Field[models.Rating] {
	if !value.Valid || !scale.Valid {
		return models.Unavailable[models.Rating]()
	}
	return models.Available(models.Rating{Value: value.Float64, Scale: scale.Float64})
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
