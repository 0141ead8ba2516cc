package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/elkriver/inventory-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS firearm_listings (
	id                       TEXT PRIMARY KEY,
	listing_hash             TEXT NOT NULL UNIQUE,
	section                  TEXT NOT NULL DEFAULT '',
	manufacturer             TEXT NOT NULL,
	model                    TEXT NOT NULL,
	caliber                  TEXT NOT NULL DEFAULT '',
	price                    REAL NOT NULL,
	description              TEXT NOT NULL DEFAULT '',
	condition                TEXT NOT NULL DEFAULT 'used',
	estimated_value          REAL,
	value_source             TEXT NOT NULL DEFAULT '',
	value_confidence         TEXT NOT NULL DEFAULT 'none',
	price_difference         REAL,
	price_difference_percent REAL,
	value_range_low          REAL,
	value_range_high         REAL,
	market_listings_json     TEXT NOT NULL DEFAULT '',
	market_listings_count    INTEGER NOT NULL DEFAULT 0,
	is_latest                INTEGER NOT NULL DEFAULT 1,
	date_scraped             DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_firearm_listings_latest ON firearm_listings(is_latest);
CREATE INDEX IF NOT EXISTS idx_firearm_listings_section ON firearm_listings(section);
CREATE INDEX IF NOT EXISTS idx_firearm_listings_manufacturer ON firearm_listings(manufacturer);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsertRecord = `
INSERT INTO firearm_listings (
	id, listing_hash, section, manufacturer, model, caliber, price,
	description, condition, estimated_value, value_source, value_confidence,
	price_difference, price_difference_percent, value_range_low,
	value_range_high, market_listings_json, market_listings_count,
	is_latest, date_scraped
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(listing_hash) DO UPDATE SET
	section = excluded.section,
	price = excluded.price,
	description = excluded.description,
	condition = excluded.condition,
	estimated_value = excluded.estimated_value,
	value_source = excluded.value_source,
	value_confidence = excluded.value_confidence,
	price_difference = excluded.price_difference,
	price_difference_percent = excluded.price_difference_percent,
	value_range_low = excluded.value_range_low,
	value_range_high = excluded.value_range_high,
	market_listings_json = excluded.market_listings_json,
	market_listings_count = excluded.market_listings_count,
	is_latest = excluded.is_latest,
	date_scraped = excluded.date_scraped
`

func (s *SQLiteStore) SaveRecords(ctx context.Context, records []model.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	// Retire the previous snapshot; the new rows flip it back on.
	if _, err := tx.ExecContext(ctx, `UPDATE firearm_listings SET is_latest = 0`); err != nil {
		return 0, eris.Wrap(err, "sqlite: retire snapshot")
	}

	var saved int64
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, sqliteUpsertRecord, recordValues(rec)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert record %s", rec.ListingHash)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return saved, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM firearm_listings`, strings.Join(recordColumns, ", "))
	var conds []string
	var args []any

	if filter.LatestOnly {
		conds = append(conds, "is_latest = 1")
	}
	if filter.Section != "" {
		conds = append(conds, "section = ?")
		args = append(args, filter.Section)
	}
	if filter.Manufacturer != "" {
		conds = append(conds, "manufacturer = ?")
		args = append(args, filter.Manufacturer)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date_scraped DESC, manufacturer, model"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) GetRecord(ctx context.Context, listingHash string) (*model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM firearm_listings WHERE listing_hash = ?`,
		strings.Join(recordColumns, ", "))
	row := s.db.QueryRowContext(ctx, query, listingHash)

	rec, err := scanSQLiteRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) Summarize(ctx context.Context) (*Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(estimated_value),
			COALESCE(SUM(CASE WHEN value_confidence = 'high' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN price_difference > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN price_difference < 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(price), 0),
			COALESCE(AVG(estimated_value), 0),
			COALESCE(AVG(price_difference_percent), 0),
			COALESCE(SUM(price_difference), 0)
		FROM firearm_listings WHERE is_latest = 1`)

	var sum Summary
	err := row.Scan(&sum.TotalListings, &sum.WithEstimates, &sum.HighConfidence,
		&sum.OverPriced, &sum.UnderPriced,
		&sum.AvgPrice, &sum.AvgEstimatedValue, &sum.AvgDifferencePercent, &sum.TotalDifference)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize")
	}
	return &sum, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (model.Record, error) {
	var (
		rec                     model.Record
		condition, confidence   string
		estValue, diff, diffPct sql.NullFloat64
		rangeLow, rangeHigh     sql.NullFloat64
		listingsJSON            sql.NullString
	)

	err := row.Scan(
		&rec.ID, &rec.ListingHash, &rec.Section, &rec.Manufacturer, &rec.Model,
		&rec.Caliber, &rec.Price, &rec.Description, &condition,
		&estValue, &rec.ValueSource, &confidence,
		&diff, &diffPct, &rangeLow, &rangeHigh,
		&listingsJSON, &rec.MarketListingsCount, &rec.IsLatest, &rec.DateScraped,
	)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, eris.Wrap(err, "sqlite: scan record")
	}

	rec.Condition = model.Condition(condition)
	rec.ValueConfidence = model.Confidence(confidence)
	rec.EstimatedValue = nullFloat(estValue)
	rec.PriceDifference = nullFloat(diff)
	rec.PriceDifferencePercent = nullFloat(diffPct)
	rec.ValueRangeLow = nullFloat(rangeLow)
	rec.ValueRangeHigh = nullFloat(rangeHigh)
	rec.MarketListingsJSON = listingsJSON.String
	rec.DateScraped = rec.DateScraped.UTC()
	return rec, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var _ Store = (*SQLiteStore)(nil)
