package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "firearm_listings",
		Columns:      []string{"id", "listing_hash"},
		ConflictKeys: []string{"listing_hash"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "firearm_listings",
		ConflictKeys: []string{"listing_hash"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "firearm_listings",
		Columns: []string{"id", "listing_hash"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	columns := []string{"id", "listing_hash", "price"}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_firearm_listings"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_firearm_listings"}, columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "firearm_listings" \("id", "listing_hash", "price"\) SELECT .+ ON CONFLICT \("listing_hash"\) DO UPDATE SET "id" = EXCLUDED\."id", "price" = EXCLUDED\."price"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "firearm_listings",
		Columns:      columns,
		ConflictKeys: []string{"listing_hash"},
	}, [][]any{
		{"id-1", "hash-1", 500.0},
		{"id-2", "hash-2", 300.0},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_ExplicitUpdateCols(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	columns := []string{"id", "listing_hash", "price", "is_latest"}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_firearm_listings"}, columns).
		WillReturnResult(1)
	mock.ExpectExec(`DO UPDATE SET "price" = EXCLUDED\."price"$`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "firearm_listings",
		Columns:      columns,
		ConflictKeys: []string{"listing_hash"},
		UpdateCols:   []string{"price"},
	}, [][]any{{"id-1", "hash-1", 500.0, true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_RollbackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "firearm_listings",
		Columns:      []string{"id"},
		ConflictKeys: []string{"id"},
	}, [][]any{{"id-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create temp table")
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"id", "listing_hash", "price"})
	assert.Equal(t, `"id", "listing_hash", "price"`, result)
}
