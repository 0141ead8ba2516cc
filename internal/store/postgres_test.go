package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elkriver/inventory-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM firearm_listings WHERE listing_hash = \$1`).
		WithArgs("no-such-hash").
		WillReturnError(pgx.ErrNoRows)

	rec, err := s.GetRecord(context.Background(), "no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	est := 550.0
	scraped := time.Now().UTC()
	rows := pgxmock.NewRows(recordColumns).AddRow(
		"id-1", "hash-1", "Handguns", "GLOCK", "19", "9MM", 500.0,
		"Gen 5", "used", &est, "Market Estimator", "medium",
		(*float64)(nil), (*float64)(nil), (*float64)(nil), (*float64)(nil),
		"", 0, true, scraped,
	)

	mock.ExpectQuery(`SELECT .+ FROM firearm_listings WHERE listing_hash = \$1`).
		WithArgs("hash-1").
		WillReturnRows(rows)

	rec, err := s.GetRecord(context.Background(), "hash-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "GLOCK", rec.Manufacturer)
	assert.Equal(t, model.ConditionUsed, rec.Condition)
	assert.Equal(t, model.ConfidenceMedium, rec.ValueConfidence)
	require.NotNil(t, rec.EstimatedValue)
	assert.Equal(t, 550.0, *rec.EstimatedValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRecords_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	saved, err := s.SaveRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE firearm_listings SET is_latest = false`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_firearm_listings"}, recordColumns).
		WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "firearm_listings" .+ ON CONFLICT \("listing_hash"\) DO UPDATE SET`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	rec := model.Record{
		ID:           "id-1",
		ListingHash:  "hash-1",
		Manufacturer: "GLOCK",
		Model:        "19",
		Price:        500,
		Condition:    model.ConditionUsed,
		IsLatest:     true,
		DateScraped:  time.Now().UTC(),
	}
	saved, err := s.SaveRecords(context.Background(), []model.Record{rec})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Summarize(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"count", "count", "coalesce", "coalesce", "coalesce",
		"coalesce", "coalesce", "coalesce", "coalesce"}
	rows := pgxmock.NewRows(cols).
		AddRow(10, 8, 5, 3, 5, 512.5, 540.0, -4.2, -220.0)
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	sum, err := s.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, sum.TotalListings)
	assert.Equal(t, 8, sum.WithEstimates)
	assert.Equal(t, 5, sum.HighConfidence)
	assert.Equal(t, 3, sum.OverPriced)
	assert.Equal(t, 5, sum.UnderPriced)
	assert.InDelta(t, 512.5, sum.AvgPrice, 0.001)
	assert.InDelta(t, -4.2, sum.AvgDifferencePercent, 0.001)
	assert.InDelta(t, -220.0, sum.TotalDifference, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	scraped := time.Now().UTC()
	rows := pgxmock.NewRows(recordColumns).AddRow(
		"id-1", "hash-1", "Handguns", "GLOCK", "19", "9MM", 500.0,
		"", "used", (*float64)(nil), "", "none",
		(*float64)(nil), (*float64)(nil), (*float64)(nil), (*float64)(nil),
		"", 0, true, scraped,
	)

	mock.ExpectQuery(`SELECT .+ FROM firearm_listings WHERE is_latest = true AND manufacturer = \$1 ORDER BY`).
		WithArgs("GLOCK").
		WillReturnRows(rows)

	records, err := s.ListRecords(context.Background(), RecordFilter{Manufacturer: "GLOCK", LatestOnly: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hash-1", records[0].ListingHash)
	assert.Nil(t, records[0].EstimatedValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}
