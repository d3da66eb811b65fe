package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-tracker/config"
	"wishlist-tracker/models"
	"wishlist-tracker/utils"
)

func newMockStore(t *testing.T) (*TemporalStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	open := func() (*sql.DB, error) { return db, nil }
	return NewTemporalStoreWithOpener(config.DriverPostgres, open, utils.Discard()), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func expectMigrate(mock sqlmock.Sqlmock) {
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS items")).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectRow(mock sqlmock.Sqlmock, insert string, err error) {
	mock.ExpectExec(q("SAVEPOINT append_row")).WillReturnResult(sqlmock.NewResult(0, 0))
	if err != nil {
		mock.ExpectExec(q(insert)).WillReturnError(err)
		mock.ExpectExec(q("ROLLBACK TO SAVEPOINT append_row")).WillReturnResult(sqlmock.NewResult(0, 0))
		return
	}
	mock.ExpectExec(q(insert)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q("RELEASE SAVEPOINT append_row")).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestAppendMock_RowErrorContinues(t *testing.T) {
	s, mock := newMockStore(t)

	expectMigrate(mock)
	mock.ExpectBegin()
	expectRow(mock, "INSERT INTO items", errors.New("value too long"))
	expectRow(mock, "INSERT INTO items", nil)
	mock.ExpectCommit()
	mock.ExpectClose()

	res, err := s.Append(context.Background(),
		[]models.ItemIdentity{identity("A1", "Broken"), identity("B2", "Fine")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Identities)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "items", res.Failures[0].Table)
	assert.Equal(t, "A1", res.Failures[0].ItemID)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAppendMock_BeginFailureIsUnavailable(t *testing.T) {
	s, mock := newMockStore(t)

	expectMigrate(mock)
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
	mock.ExpectClose()

	_, err := s.Append(context.Background(), []models.ItemIdentity{identity("A1", "Book")}, nil)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "begin")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAppendMock_CommitFailureIsUnavailable(t *testing.T) {
	s, mock := newMockStore(t)

	expectMigrate(mock)
	mock.ExpectBegin()
	expectRow(mock, "INSERT INTO items", nil)
	expectRow(mock, "INSERT INTO records", nil)
	mock.ExpectCommit().WillReturnError(errors.New("server closed the connection"))
	mock.ExpectClose()

	_, err := s.Append(context.Background(),
		[]models.ItemIdentity{identity("A1", "Book")},
		[]models.Observation{observation("A1", t0, "$4.00")})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAppendMock_MigrateFailureIsUnavailable(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS items")).
		WillReturnError(errors.New("permission denied for schema public"))
	mock.ExpectClose()

	_, err := s.CurrentSnapshot(context.Background())

	var unavailableErr *StorageUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
	assert.Equal(t, "migrate", unavailableErr.Op)
}

func TestSnapshotMock_ScansNullObservation(t *testing.T) {
	s, mock := newMockStore(t)

	cols := []string{
		"item_id", "external_id", "name", "by_line", "list_name",
		"captured_at", "list_name", "price", "price_used_new",
		"rating_value", "rating_scale", "num_reviews",
	}
	expectMigrate(mock)
	mock.ExpectQuery(q("FROM items i")).WillReturnRows(sqlmock.NewRows(cols).
		AddRow("A1", "ext", "Book", "by X", "Books", t1.UnixNano(), "Books", "$8.49", nil, 4.0, 5.0, 3).
		AddRow("B2", "", "Lamp", "", "Home", nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectClose()

	rows, err := s.CurrentSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, t1, rows[0].CapturedAt)
	assert.Equal(t, models.Available(models.Rating{Value: 4, Scale: 5}), rows[0].Rating)
	assert.False(t, rows[0].UsedNewPrice.Valid)

	assert.False(t, rows[1].HasObservation())
	assert.Equal(t, 0, rows[1].ReviewCount)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPingMock_CancelledWhileConnecting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	open := func() (*sql.DB, error) {
		cancel()
		return db, nil
	}
	s := NewTemporalStoreWithOpener(config.DriverPostgres, open, utils.Discard())
	mock.ExpectClose()

	err = s.Ping(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrStorageUnavailable))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
