package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cabf05/lotworker/internal/scraper"
	apperr "cabf05/lotworker/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS imoveisdireto (
	id          BIGINT PRIMARY KEY,
	titulo      TEXT NOT NULL,
	endereco    TEXT NOT NULL,
	area_m2     NUMERIC(12,2) NOT NULL,
	preco_real  NUMERIC(14,2) NOT NULL,
	preco_m2    NUMERIC(14,2) NOT NULL,
	link        TEXT NOT NULL DEFAULT '',
	pagina      INT NOT NULL,
	data_coleta DATE NOT NULL,
	estado      TEXT NOT NULL,
	localidade  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imoveisdireto_data_coleta ON imoveisdireto (data_coleta);
`

const insertSQL = `
INSERT INTO imoveisdireto
	(id, titulo, endereco, area_m2, preco_real, preco_m2, link, pagina, data_coleta, estado, localidade)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING
`

// PostgresStore implements ResultSink on Postgres
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ ResultSink = (*PostgresStore)(nil)

// NewPostgresStore connects to Postgres and ensures the schema exists
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperr.NewSink("open postgres pool", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperr.NewSink("ping postgres", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, apperr.NewSink("ensure schema", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// HighestExistingID returns the highest persisted record id
func (s *PostgresStore) HighestExistingID(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM imoveisdireto`).Scan(&id)
	if err != nil {
		return 0, apperr.NewSink("read highest id", err)
	}
	return id, nil
}

// InsertBatch upserts the records in one round trip and returns the number
// of rows actually inserted
func (s *PostgresStore) InsertBatch(ctx context.Context, records []scraper.Listing) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insertSQL,
			r.ID, r.Title, r.Address, r.AreaM2, r.Price, r.PricePerM2,
			r.Link, r.Page, r.CollectedAt, r.Region, r.Locality)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return inserted, apperr.NewSink("insert batch", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// AlreadyCollectedToday reports whether any record carries today's date
func (s *PostgresStore) AlreadyCollectedToday(ctx context.Context) (bool, error) {
	var collected bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM imoveisdireto WHERE data_coleta = CURRENT_DATE)`).Scan(&collected)
	if err != nil {
		return false, apperr.NewSink("check today's collection", err)
	}
	return collected, nil
}

// History returns the per-day record counts in date order
func (s *PostgresStore) History(ctx context.Context) ([]CollectionDay, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data_coleta::text, COUNT(*) FROM imoveisdireto GROUP BY data_coleta ORDER BY data_coleta`)
	if err != nil {
		return nil, apperr.NewSink("read history", err)
	}
	defer rows.Close()

	var history []CollectionDay
	for rows.Next() {
		var day CollectionDay
		if err := rows.Scan(&day.Date, &day.Count); err != nil {
			return nil, apperr.NewSink("scan history row", err)
		}
		history = append(history, day)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewSink("iterate history", err)
	}
	return history, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}
