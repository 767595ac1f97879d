// Package postgres mirrors prediction records into a Postgres table.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predlog"
)

const createTable = `CREATE TABLE IF NOT EXISTS predictions (
	id                 BIGSERIAL PRIMARY KEY,
	ts                 TIMESTAMPTZ NOT NULL,
	predicted_disease  TEXT NOT NULL,
	confidence_percent DOUBLE PRECISION,
	num_symptoms       INTEGER NOT NULL,
	selected_symptoms  TEXT NOT NULL
)`

const insertRow = `INSERT INTO predictions
	(ts, predicted_disease, confidence_percent, num_symptoms, selected_symptoms)
	VALUES ($1, $2, $3, $4, $5)`

// execer is the subset of *pgxpool.Pool the mirror uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Mirror inserts each record into the predictions table.
type Mirror struct {
	db    execer
	close func()
}

var _ predlog.Sink = (*Mirror)(nil)

// Connect opens a pool for url, pings it and ensures the table exists.
func Connect(ctx context.Context, url string) (*Mirror, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse db url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	m := &Mirror{db: pool, close: pool.Close}
	if err := m.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mirror) migrate(ctx context.Context) error {
	if _, err := m.db.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}
	return nil
}

// Append inserts rec.
func (m *Mirror) Append(ctx context.Context, rec model.PredictionRecord) error {
	_, err := m.db.Exec(ctx, insertRow,
		rec.Timestamp.UTC(),
		rec.PredictedDisease,
		rec.ConfidencePercent,
		rec.NumSymptoms,
		strings.Join(rec.SelectedSymptoms, model.SymptomDelimiter),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	return nil
}

// Close releases the pool.
func (m *Mirror) Close() error {
	if m.close != nil {
		m.close()
	}
	return nil
}
