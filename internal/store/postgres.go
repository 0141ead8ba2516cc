package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/elkriver/inventory-cli/internal/db"
	"github.com/elkriver/inventory-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS firearm_listings (
	id                       TEXT PRIMARY KEY,
	listing_hash             TEXT NOT NULL UNIQUE,
	section                  TEXT NOT NULL DEFAULT '',
	manufacturer             TEXT NOT NULL,
	model                    TEXT NOT NULL,
	caliber                  TEXT NOT NULL DEFAULT '',
	price                    DOUBLE PRECISION NOT NULL,
	description              TEXT NOT NULL DEFAULT '',
	condition                TEXT NOT NULL DEFAULT 'used',
	estimated_value          DOUBLE PRECISION,
	value_source             TEXT NOT NULL DEFAULT '',
	value_confidence         TEXT NOT NULL DEFAULT 'none',
	price_difference         DOUBLE PRECISION,
	price_difference_percent DOUBLE PRECISION,
	value_range_low          DOUBLE PRECISION,
	value_range_high         DOUBLE PRECISION,
	market_listings_json     TEXT NOT NULL DEFAULT '',
	market_listings_count    INTEGER NOT NULL DEFAULT 0,
	is_latest                BOOLEAN NOT NULL DEFAULT true,
	date_scraped             TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_firearm_listings_latest ON firearm_listings(is_latest);
CREATE INDEX IF NOT EXISTS idx_firearm_listings_section ON firearm_listings(section);
CREATE INDEX IF NOT EXISTS idx_firearm_listings_manufacturer ON firearm_listings(manufacturer);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRecords(ctx context.Context, records []model.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// Retire the previous snapshot first; the bulk upsert flips the
	// surviving rows back on.
	if _, err := s.pool.Exec(ctx, `UPDATE firearm_listings SET is_latest = false`); err != nil {
		return 0, eris.Wrap(err, "postgres: retire snapshot")
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordValues(rec))
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "firearm_listings",
		Columns:      recordColumns,
		ConflictKeys: []string{"listing_hash"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save records")
	}
	return n, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM firearm_listings`, strings.Join(recordColumns, ", "))
	var conds []string
	var args []any

	if filter.LatestOnly {
		conds = append(conds, "is_latest = true")
	}
	if filter.Section != "" {
		args = append(args, filter.Section)
		conds = append(conds, fmt.Sprintf("section = $%d", len(args)))
	}
	if filter.Manufacturer != "" {
		args = append(args, filter.Manufacturer)
		conds = append(conds, fmt.Sprintf("manufacturer = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date_scraped DESC, manufacturer, model"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) GetRecord(ctx context.Context, listingHash string) (*model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM firearm_listings WHERE listing_hash = $1`,
		strings.Join(recordColumns, ", "))
	row := s.pool.QueryRow(ctx, query, listingHash)

	rec, err := scanPostgresRecord(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Summarize(ctx context.Context) (*Summary, error) {
	row := s.pool.QueryRow(ctx, `
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
		FROM firearm_listings WHERE is_latest = true`)

	var sum Summary
	err := row.Scan(&sum.TotalListings, &sum.WithEstimates, &sum.HighConfidence,
		&sum.OverPriced, &sum.UnderPriced,
		&sum.AvgPrice, &sum.AvgEstimatedValue, &sum.AvgDifferencePercent, &sum.TotalDifference)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize")
	}
	return &sum, nil
}

func scanPostgresRecord(row pgx.Row) (model.Record, error) {
	var (
		rec                     model.Record
		condition, confidence   string
		estValue, diff, diffPct *float64
		rangeLow, rangeHigh     *float64
	)

	err := row.Scan(
		&rec.ID, &rec.ListingHash, &rec.Section, &rec.Manufacturer, &rec.Model,
		&rec.Caliber, &rec.Price, &rec.Description, &condition,
		&estValue, &rec.ValueSource, &confidence,
		&diff, &diffPct, &rangeLow, &rangeHigh,
		&rec.MarketListingsJSON, &rec.MarketListingsCount, &rec.IsLatest, &rec.DateScraped,
	)
	if err == pgx.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, eris.Wrap(err, "postgres: scan record")
	}

	rec.Condition = model.Condition(condition)
	rec.ValueConfidence = model.Confidence(confidence)
	rec.EstimatedValue = estValue
	rec.PriceDifference = diff
	rec.PriceDifferencePercent = diffPct
	rec.ValueRangeLow = rangeLow
	rec.ValueRangeHigh = rangeHigh
	rec.DateScraped = rec.DateScraped.UTC()
	return rec, nil
}

var _ Store = (*PostgresStore)(nil)
