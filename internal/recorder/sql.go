package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

var schema = map[string][]string{
	DriverSQLite: {
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS sentiment_digests (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			snapshot_id      TEXT NOT NULL,
			source           TEXT,
			fear_greed       INTEGER,
			btc_dominance    REAL,
			total_market_cap REAL,
			total_volume_24h REAL,
			opportunities    INTEGER,
			btc_price        REAL,
			best_signal      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_ts ON sentiment_digests(timestamp)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS sentiment_digests (
			id               BIGSERIAL PRIMARY KEY,
			timestamp        BIGINT NOT NULL,
			snapshot_id      TEXT NOT NULL,
			source           TEXT,
			fear_greed       INTEGER,
			btc_dominance    DOUBLE PRECISION,
			total_market_cap DOUBLE PRECISION,
			total_volume_24h DOUBLE PRECISION,
			opportunities    INTEGER,
			btc_price        DOUBLE PRECISION,
			best_signal      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_ts ON sentiment_digests(timestamp)`,
	},
}

// SQLRecorder writes digests to SQLite or Postgres through sqlx.
type SQLRecorder struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLRecorder opens (or creates) the database and runs migrations.
func NewSQLRecorder(driver, dsn string) (*SQLRecorder, error) {
	stmts, ok := schema[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer keeps WAL and :memory: databases consistent.
		db.SetMaxOpenConns(1)
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate %q: %w", firstLine(s), err)
		}
	}

	log.Info().Str("driver", driver).Msg("digest recorder opened")
	return &SQLRecorder{db: db}, nil
}

func (r *SQLRecorder) RecordDigest(ctx context.Context, d *Digest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO sentiment_digests
		(timestamp, snapshot_id, source, fear_greed, btc_dominance,
		 total_market_cap, total_volume_24h, opportunities, btc_price, best_signal)
		VALUES (:timestamp, :snapshot_id, :source, :fear_greed, :btc_dominance,
		 :total_market_cap, :total_volume_24h, :opportunities, :btc_price, :best_signal)`, d)
	if err != nil {
		return fmt.Errorf("insert digest: %w", err)
	}
	return nil
}

// Recent returns up to limit digests, newest first.
func (r *SQLRecorder) Recent(ctx context.Context, limit int) ([]Digest, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Digest
	q := r.db.Rebind(`SELECT id, timestamp, snapshot_id, source, fear_greed, btc_dominance,
		total_market_cap, total_volume_24h, opportunities, btc_price, best_signal
		FROM sentiment_digests ORDER BY timestamp DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("select digests: %w", err)
	}
	return out, nil
}

func (r *SQLRecorder) Close() error {
	log.Info().Msg("closing digest recorder")
	return r.db.Close()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
