package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/hdsm55/shababna-platform-sub002/internal/logger"
	"github.com/hdsm55/shababna-platform-sub002/internal/models"
	"github.com/hdsm55/shababna-platform-sub002/internal/repository"

	"go.uber.org/zap"
)

// TokenService issues, validates and consumes single-use reset tokens.
// The secret leaves the process exactly once, in the reset email; only its
// sha256 hash is stored.
type TokenService struct {
	repo     repository.ResetTokenRepo
	tokenTTL time.Duration
}

func NewTokenService(repo repository.ResetTokenRepo, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &TokenService{repo: repo, tokenTTL: ttl}
}

// Issue replaces any token the user still has with a fresh one and returns
// the bearer secret. The previous token stops validating from here on.
func (s *TokenService) Issue(ctx context.Context, userID int64, ip, userAgent string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		logger.Log.Error("reset token generation failed", zap.Error(err), zap.Int64("user_id", userID))
		return "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	now := time.Now()
	t := &models.ResetToken{
		UserID:           userID,
		TokenHash:        HashToken(secret),
		IssuedAt:         now,
		ExpiresAt:        now.Add(s.tokenTTL),
		RequestIP:        ip,
		RequestUserAgent: userAgent,
	}
	if err := s.repo.Replace(ctx, t); err != nil {
		logger.Log.Error("reset token persist failed", zap.Error(err), zap.Int64("user_id", userID))
		return "", err
	}

	logger.Log.Info("reset token issued",
		zap.Int64("user_id", userID),
		zap.Time("expires_at", t.ExpiresAt),
	)
	return secret, nil
}

// Validate is read-only and safe to call repeatedly, e.g. for UI pre-checks.
// Absent, expired and used tokens all come back as ErrTokenInvalid; a store
// failure propagates so callers fail closed instead of answering "invalid".
func (s *TokenService) Validate(ctx context.Context, secret string) (*models.ResetToken, error) {
	t, err := s.repo.GetActiveByHash(ctx, HashToken(secret))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		logger.Log.Error("reset token lookup failed", zap.Error(err))
		return nil, err
	}
	return t, nil
}

// Consume marks the token used. It reports ErrTokenInvalid instead of
// silently succeeding when the token was consumed or expired since a prior
// Validate, so racing completions resolve to one winner.
func (s *TokenService) Consume(ctx context.Context, secret string) error {
	ok, err := s.repo.Consume(ctx, HashToken(secret))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenInvalid
	}
	return nil
}

// HashToken maps a bearer secret to its at-rest form.
func HashToken(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
