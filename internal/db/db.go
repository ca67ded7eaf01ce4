package db

import (
	"context"

	"github.com/hdsm55/shababna-platform-sub002/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPostgresConnection(cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := cfg.GetDSN()
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return pool, nil
}

// EnsureSchema creates the two tables this subsystem owns. The users table
// belongs to the platform and is expected to exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reset_tokens (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			token_hash TEXT NOT NULL,
			issued_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at TIMESTAMPTZ NOT NULL,
			used_at TIMESTAMPTZ,
			request_ip TEXT NOT NULL DEFAULT '',
			request_user_agent TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reset_tokens_token_hash ON reset_tokens (token_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_reset_tokens_user_id ON reset_tokens (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reset_tokens_expires_at ON reset_tokens (expires_at)`,
		`CREATE TABLE IF NOT EXISTS attempt_logs (
			id BIGSERIAL PRIMARY KEY,
			identifier TEXT NOT NULL,
			action TEXT NOT NULL,
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			success BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempt_logs_identifier_action ON attempt_logs (identifier, action)`,
		`CREATE INDEX IF NOT EXISTS idx_attempt_logs_created_at ON attempt_logs (created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
