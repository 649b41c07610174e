package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/your-org/presence/internal/config"
	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/internal/observability"
	"github.com/your-org/presence/internal/storage/migrations"
)

// PostgresStore persists participation records. Writes are idempotent upserts
// keyed by (email, date); transient failures are retried a bounded number of
// times before surfacing.
type PostgresStore struct {
	pool     *pgxpool.Pool
	attempts int
}

func NewPostgresStore(cfg config.DatabaseConfig, writeAttempts int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if writeAttempts < 1 {
		writeAttempts = 1
	}

	return &PostgresStore{pool: pool, attempts: writeAttempts}, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig) error {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Upsert writes one record per (email, date), last write wins. The statement
// either fully succeeds or leaves the key at its previous value.
func (s *PostgresStore) Upsert(ctx context.Context, rec models.ParticipationRecord) error {
	backoff := retry.WithMaxRetries(uint64(s.attempts-1), retry.NewConstant(200*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO participation_records (email, date, name, participated)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (email, date) DO UPDATE
			 SET name = EXCLUDED.name,
			     participated = EXCLUDED.participated,
			     updated_at = now()`,
			rec.Email, rec.Date, rec.Name, rec.Participated,
		)
		if err != nil {
			observability.RecordWriteRetries.Inc()
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert participation record: %w", err)
	}
	return nil
}

// Get returns the record for (email, date), or nil when none exists.
func (s *PostgresStore) Get(ctx context.Context, email, date string) (*models.ParticipationRecord, error) {
	var rec models.ParticipationRecord
	err := s.pool.QueryRow(ctx,
		`SELECT email, date, name, participated, created_at, updated_at
		 FROM participation_records
		 WHERE email = $1 AND date = $2`,
		email, date,
	).Scan(&rec.Email, &rec.Date, &rec.Name, &rec.Participated, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get participation record: %w", err)
	}
	return &rec, nil
}

// List returns records, optionally filtered by email, newest first.
func (s *PostgresStore) List(ctx context.Context, email string) ([]models.ParticipationRecord, error) {
	query := `SELECT email, date, name, participated, created_at, updated_at
	          FROM participation_records`
	args := []any{}
	if email != "" {
		query += ` WHERE email = $1`
		args = append(args, email)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participation records: %w", err)
	}
	defer rows.Close()

	var records []models.ParticipationRecord
	for rows.Next() {
		var rec models.ParticipationRecord
		if err := rows.Scan(&rec.Email, &rec.Date, &rec.Name, &rec.Participated, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan participation record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
