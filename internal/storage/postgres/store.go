package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sellImpact/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	network        TEXT NOT NULL,
	pool_address   TEXT NOT NULL,
	fetched_at     TIMESTAMPTZ NOT NULL,
	label          TEXT NOT NULL,
	fee_bps        INTEGER NOT NULL,
	fee_source     TEXT NOT NULL,
	reserve_usd    DOUBLE PRECISION NOT NULL,
	volume_24h_usd DOUBLE PRECISION NOT NULL,
	base_address   TEXT NOT NULL,
	base_reserve   DOUBLE PRECISION NOT NULL,
	base_price_usd DOUBLE PRECISION NOT NULL,
	quote_address  TEXT NOT NULL,
	quote_reserve  DOUBLE PRECISION NOT NULL,
	quote_price_usd DOUBLE PRECISION NOT NULL,
	reserve_method TEXT NOT NULL,
	PRIMARY KEY (network, pool_address, fetched_at)
);`

// Store provides Postgres persistence for cache entries and pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Load returns the cache record stored under key. Rows past their expiry are
// reported as missing.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT data FROM cache_entries WHERE key=$1 AND expires_at > now()`, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load cache entry: %w", err)
	}
	return data, true, nil
}

// Save upserts the cache record for key.
func (s *Store) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("cache key required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cache_entries (key, data, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = now()
	`, key, data, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}

// PurgeExpired deletes cache rows past their expiry.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecordSnapshots inserts pool snapshots as history rows.
func (s *Store) RecordSnapshots(ctx context.Context, network string, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				network, pool_address, fetched_at, label, fee_bps, fee_source,
				reserve_usd, volume_24h_usd, base_address, base_reserve, base_price_usd,
				quote_address, quote_reserve, quote_price_usd, reserve_method
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			ON CONFLICT (network, pool_address, fetched_at) DO NOTHING
		`,
			network,
			snap.Address,
			snap.FetchedAt,
			snap.Label,
			int32(snap.FeeBps),
			snap.FeeSource,
			snap.ReserveUSD,
			snap.Volume24hUSD,
			snap.Base.Address,
			snap.Base.ReserveEstimate,
			snap.Base.PriceUSD,
			snap.Quote.Address,
			snap.Quote.ReserveEstimate,
			snap.Quote.PriceUSD,
			snap.ReserveMethod,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert pool snapshot: %w", err)
		}
	}
	return nil
}

// LatestSnapshot returns the most recently recorded snapshot for a pool.
func (s *Store) LatestSnapshot(ctx context.Context, network, poolAddress string) (model.PoolSnapshot, bool, error) {
	var snap model.PoolSnapshot
	var fee int32
	row := s.pool.QueryRow(ctx, `
		SELECT pool_address, fetched_at, label, fee_bps, fee_source, reserve_usd, volume_24h_usd,
			base_address, base_reserve, base_price_usd,
			quote_address, quote_reserve, quote_price_usd, reserve_method
		FROM pool_snapshots
		WHERE network=$1 AND pool_address=$2
		ORDER BY fetched_at DESC
		LIMIT 1
	`, network, poolAddress)
	err := row.Scan(
		&snap.Address, &snap.FetchedAt, &snap.Label, &fee, &snap.FeeSource, &snap.ReserveUSD, &snap.Volume24hUSD,
		&snap.Base.Address, &snap.Base.ReserveEstimate, &snap.Base.PriceUSD,
		&snap.Quote.Address, &snap.Quote.ReserveEstimate, &snap.Quote.PriceUSD, &snap.ReserveMethod,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, false, nil
		}
		return model.PoolSnapshot{}, false, fmt.Errorf("load pool snapshot: %w", err)
	}
	snap.FeeBps = uint32(fee)
	return snap, true, nil
}
