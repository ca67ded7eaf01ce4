package repository

import (
	"context"
	"time"

	"github.com/hdsm55/shababna-platform-sub002/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AttemptLogRepository struct {
	db *pgxpool.Pool
}

func NewAttemptLogRepository(db *pgxpool.Pool) *AttemptLogRepository {
	return &AttemptLogRepository{db: db}
}

type AttemptLogRepo interface {
	Insert(ctx context.Context, a *models.AttemptLog) error
	CountInWindow(ctx context.Context, identifier, action string, since time.Time) (int64, *time.Time, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

func (r *AttemptLogRepository) Insert(ctx context.Context, a *models.AttemptLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO attempt_logs (identifier, action, ip, user_agent, success, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, a.Identifier, a.Action, a.IP, a.UserAgent, a.Success)
	return err
}

// CountInWindow returns how many attempts the pair made since the cutoff and
// when the most recent one happened (nil when there are none).
func (r *AttemptLogRepository) CountInWindow(ctx context.Context, identifier, action string, since time.Time) (int64, *time.Time, error) {
	var count int64
	var last *time.Time
	err := r.db.QueryRow(ctx, `
		SELECT count(*), max(created_at)
		FROM attempt_logs
		WHERE identifier = $1
		  AND action = $2
		  AND created_at > $3
	`, identifier, action, since).Scan(&count, &last)
	if err != nil {
		return 0, nil, err
	}
	return count, last, nil
}

func (r *AttemptLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM attempt_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
