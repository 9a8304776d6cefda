package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/models"
)

type PostgresWriter struct {
	pool  *pgxpool.Pool
	runID uuid.UUID
}

// NewPostgresWriter connects to the configured database. Every advert
// written through it is tagged with a fresh run id.
func NewPostgresWriter(ctx context.Context, cfg *config.Config) (*PostgresWriter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return &PostgresWriter{pool: pool, runID: uuid.New()}, nil
}

func (w *PostgresWriter) RunID() uuid.UUID { return w.runID }

func (w *PostgresWriter) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

func (w *PostgresWriter) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS advertisements (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		hyperlink TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		seller_type TEXT NOT NULL,
		price TEXT NOT NULL,
		make TEXT NOT NULL,
		model TEXT NOT NULL,
		year TEXT NOT NULL,
		mileage TEXT NOT NULL,
		body_style TEXT NOT NULL,
		co2_emission TEXT NOT NULL,
		doors TEXT NOT NULL,
		transmission TEXT NOT NULL,
		was_stolen TEXT NOT NULL,
		was_write_off TEXT NOT NULL,
		was_scrapped TEXT NOT NULL,
		engine_size TEXT NOT NULL,
		fuel_type TEXT NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_advertisements_make_model ON advertisements(make, model);
	CREATE INDEX IF NOT EXISTS idx_advertisements_run ON advertisements(run_id);
	`

	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

// WriteBatch upserts adverts keyed on hyperlink. A re-scraped advert takes
// the latest values and run id.
func (w *PostgresWriter) WriteBatch(ctx context.Context, adverts []models.Advertisement) error {
	if len(adverts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	insertSQL := upsertSQL()
	batch := &pgx.Batch{}

	enqueued := 0
	for _, ad := range adverts {
		args, ok := advertArgs(w.runID, ad)
		if !ok {
			continue
		}
		batch.Queue(insertSQL, args...)
		enqueued++
	}

	if enqueued == 0 {
		return nil
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < enqueued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	return nil
}

// upsertSQL inserts one advert in models.Columns order after the run id.
func upsertSQL() string {
	cols := append([]string{"run_id"}, models.Columns...)
	params := make([]string, len(cols))
	updates := make([]string, 0, len(cols)-1)
	for i, c := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
		if c != "hyperlink" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	updates = append(updates, "scraped_at = NOW()")

	return fmt.Sprintf(
		"INSERT INTO advertisements (%s) VALUES (%s) ON CONFLICT (hyperlink) DO UPDATE SET %s;",
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
		strings.Join(updates, ", "),
	)
}

// advertArgs returns the query arguments for ad, or false when the advert
// has no hyperlink to key on.
func advertArgs(runID uuid.UUID, ad models.Advertisement) ([]any, bool) {
	if strings.TrimSpace(ad.Hyperlink) == "" {
		return nil, false
	}
	values := ad.Values()
	args := make([]any, 0, len(values)+1)
	args = append(args, runID)
	for _, v := range values {
		args = append(args, v)
	}
	return args, true
}
