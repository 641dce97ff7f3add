package postgresql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/mockchain/internal/models"
)

func newMockHandler(t *testing.T) (*PostgresOutputHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newWithDB(db), mock
}

func TestWriteBlock(t *testing.T) {
	h, mock := newMockHandler(t)

	block := &models.Block{
		Height: 2,
		Receipts: []models.Receipt{
			{Result: "(ok true)"},
			{Result: "(err u100)"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocks")).
		WithArgs(int64(2), `{"height":2,"receipts":[{"result":"(ok true)"},{"result":"(err u100)"}]}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM receipts")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO receipts")).
		WithArgs(int64(2), int64(0), "(ok true)").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO receipts")).
		WithArgs(int64(2), int64(1), "(err u100)").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, h.WriteBlock(context.Background(), block))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteBlock_rollback_on_error(t *testing.T) {
	h, mock := newMockHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocks")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := h.WriteBlock(context.Background(), &models.Block{Height: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write block 3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestBlock(t *testing.T) {
	h, mock := newMockHandler(t)

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow(int64(7), []byte(`{"height":7,"receipts":[{"result":"(ok true)"}]}`))
	mock.ExpectQuery(regexp.QuoteMeta(latestBlockQuery)).WillReturnRows(rows)

	block, err := h.GetLatestBlock(context.Background())
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint64(7), block.Height)
	assert.Equal(t, []models.Receipt{{Result: "(ok true)"}}, block.Receipts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEarliestBlock_empty(t *testing.T) {
	h, mock := newMockHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(earliestBlockQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}))

	block, err := h.GetEarliestBlock(context.Background())
	require.NoError(t, err)
	assert.Nil(t, block)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingBlockIds(t *testing.T) {
	h, mock := newMockHandler(t)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(4)).AddRow(int64(6))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id FROM generate_series")).WillReturnRows(rows)

	missing, err := h.GetMissingBlockIds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 6}, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingBlockIds_query_error(t *testing.T) {
	h, mock := newMockHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id FROM generate_series")).
		WillReturnError(errors.New("boom"))

	_, err := h.GetMissingBlockIds(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query missing blocks")
}
