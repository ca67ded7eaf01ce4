package repository

import (
	"context"
	"errors"

	"github.com/hdsm55/shababna-platform-sub002/internal/logger"
	"github.com/hdsm55/shababna-platform-sub002/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ResetTokenRepository struct {
	db *pgxpool.Pool
}

func NewResetTokenRepository(db *pgxpool.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

type ResetTokenRepo interface {
	Replace(ctx context.Context, t *models.ResetToken) error
	GetActiveByHash(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	Consume(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpiredOrUsed(ctx context.Context) (int64, error)
}

// Replace deletes any tokens the user still has and inserts the new one in a
// single transaction, so two concurrent issues cannot leave two active tokens.
func (r *ResetTokenRepository) Replace(ctx context.Context, t *models.ResetToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reset_tokens WHERE user_id = $1`, t.UserID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO reset_tokens (user_id, token_hash, issued_at, expires_at, request_ip, request_user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, t.UserID, t.TokenHash, t.IssuedAt, t.ExpiresAt, t.RequestIP, t.RequestUserAgent).Scan(&t.ID)
	if err != nil {
		logger.Log.Error("insert reset token failed", zap.Error(err), zap.Int64("user_id", t.UserID))
		return err
	}

	return tx.Commit(ctx)
}

func (r *ResetTokenRepository) GetActiveByHash(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, issued_at, expires_at, used_at, request_ip, request_user_agent
		FROM reset_tokens
		WHERE token_hash = $1
		  AND used_at IS NULL
		  AND expires_at > now()
	`, tokenHash)

	var t models.ResetToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.UsedAt, &t.RequestIP, &t.RequestUserAgent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Consume marks the token used with a single conditional update. When two
// completions race, exactly one sees an affected row.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE reset_tokens
		SET used_at = now()
		WHERE token_hash = $1
		  AND used_at IS NULL
		  AND expires_at > now()
	`, tokenHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ResetTokenRepository) DeleteExpiredOrUsed(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reset_tokens WHERE expires_at < now() OR used_at IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
