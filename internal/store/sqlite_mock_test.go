package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Driver-level failures cannot be produced against a real database file, so
// these paths run on a mocked connection.
func newMockRepo(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r, err := NewSQLiteRepository(context.Background(), db, "")
	require.NoError(t, err)
	return r, mock
}

func TestSQLiteInsert_DBError(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO documents`).
		WillReturnError(errors.New("disk I/O error"))

	err := r.Insert(context.Background(), sampleDocument("d1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert document")
}

func TestSQLiteUpdate_RowsAffectedError(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE documents SET`).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver: bad connection")))

	err := r.Update(context.Background(), sampleDocument("d1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get rows affected")
}

func TestSQLiteDelete_DBError(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM documents`).
		WillReturnError(errors.New("disk I/O error"))

	err := r.Delete(context.Background(), "d1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete document")
}

func TestSQLiteFetchAll_QueryError(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT.+FROM documents`).
		WillReturnError(errors.New("disk I/O error"))

	_, err := r.FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select documents")
}

func TestSQLiteFetchAll_RowIterationError(t *testing.T) {
	r, mock := newMockRepo(t)

	cols := []string{"id", "title", "drawing", "record_id", "embed_block_id",
		"created_at", "last_synced_at", "thumbnail", "linked_ids", "linked_info"}
	rows := sqlmock.NewRows(cols).
		AddRow("d1", "t", []byte{1}, "", "", time.Now(), nil, []byte{2}, "[]", "{}").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery(`(?s)SELECT.+FROM documents`).WillReturnRows(rows)

	_, err := r.FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
