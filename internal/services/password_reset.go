package services

import (
	"context"
	"errors"
	"strings"

	"github.com/hdsm55/shababna-platform-sub002/internal/logger"
	"github.com/hdsm55/shababna-platform-sub002/internal/models"
	"github.com/hdsm55/shababna-platform-sub002/internal/repository"

	"go.uber.org/zap"
)

// ResetNotifier delivers the reset link. Transport failures stay inside the
// flow; the caller never learns whether the email actually went out.
type ResetNotifier interface {
	SendResetEmail(ctx context.Context, to, token, firstName string) error
}

// PasswordResetService orchestrates the three user-facing reset operations
// over the rate limiter, the token manager and the platform's user store.
type PasswordResetService struct {
	tokens  *TokenService
	limiter *RateLimitService
	users   repository.UserRepo
	mailer  ResetNotifier
	hasher  PasswordHasher
}

func NewPasswordResetService(
	tokens *TokenService,
	limiter *RateLimitService,
	users repository.UserRepo,
	mailer ResetNotifier,
	hasher PasswordHasher,
) *PasswordResetService {
	return &PasswordResetService{
		tokens:  tokens,
		limiter: limiter,
		users:   users,
		mailer:  mailer,
		hasher:  hasher,
	}
}

// RequestReset issues a token and emails the link. A nil return means only
// "request accepted": unknown emails take the same path as known ones so the
// endpoint cannot be used to enumerate accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email, ip, userAgent string) error {
	if d := s.limiter.Check(ctx, ip, models.ActionForgotPassword); !d.Allowed {
		s.limiter.Record(ctx, ip, models.ActionForgotPassword, ip, userAgent, false)
		return &RateLimitError{RetryAfter: d.ResetTime}
	}

	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// No such account. Log for us, same outcome for the caller.
		logger.WithCtx(ctx).Warn("reset requested for unknown email")
		s.limiter.Record(ctx, ip, models.ActionForgotPassword, ip, userAgent, true)
		return nil
	}
	if err != nil {
		// Store outage: fail closed, never pretend the email went out.
		logger.WithCtx(ctx).Error("user lookup failed", zap.Error(err))
		s.limiter.Record(ctx, ip, models.ActionForgotPassword, ip, userAgent, false)
		return err
	}

	secret, err := s.tokens.Issue(ctx, user.ID, ip, userAgent)
	if err != nil {
		s.limiter.Record(ctx, ip, models.ActionForgotPassword, ip, userAgent, false)
		return err
	}

	sent := true
	if err := s.mailer.SendResetEmail(ctx, user.Email, secret, user.FirstName); err != nil {
		logger.WithCtx(ctx).Error("reset email send failed",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		sent = false
	}
	s.limiter.Record(ctx, ip, models.ActionForgotPassword, ip, userAgent, sent)
	return nil
}

// ValidateToken resolves a reset link to its user for UI display. Read-only,
// never consumes the token.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	rec, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, rec.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// Token outlived its owner.
		logger.WithCtx(ctx).Warn("reset token owner no longer exists", zap.Int64("user_id", rec.UserID))
		return nil, ErrTokenInvalid
	}
	if err != nil {
		logger.WithCtx(ctx).Error("reset token owner lookup failed",
			zap.Int64("user_id", rec.UserID),
			zap.Error(err),
		)
		return nil, err
	}
	return user, nil
}

// CompleteReset sets the new password and retires the token. Expired,
// already-used and never-issued tokens are indistinguishable to the caller.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, newPassword, ip, userAgent string) error {
	if d := s.limiter.Check(ctx, ip, models.ActionResetPassword); !d.Allowed {
		s.limiter.Record(ctx, ip, models.ActionResetPassword, ip, userAgent, false)
		return &RateLimitError{RetryAfter: d.ResetTime}
	}

	if len(newPassword) < 8 {
		s.limiter.Record(ctx, ip, models.ActionResetPassword, ip, userAgent, false)
		return ErrPasswordTooShort
	}

	rec, err := s.tokens.Validate(ctx, token)
	if err != nil {
		// ErrTokenInvalid stays generic; a store failure propagates to a 500.
		s.limiter.Record(ctx, ip, models.ActionResetPassword, ip, userAgent, false)
		return err
	}

	pwHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		logger.WithCtx(ctx).Error("password hash failed", zap.Error(err), zap.Int64("user_id", rec.UserID))
		s.limiter.Record(ctx, ip, models.ActionResetPassword, ip, userAgent, false)
		return err
	}

	if err := s.users.UpdatePassword(ctx, rec.UserID, pwHash); err != nil {
		logger.WithCtx(ctx).Error("password update failed", zap.Error(err), zap.Int64("user_id", rec.UserID))
		s.limiter.Record(ctx, ip, models.ActionResetPassword, ip, userAgent, false)
		return err
	}

	if err := s.tokens.Consume(ctx, token); err != nil {
		// Lost the race between Validate and Consume: someone else finished
		// with this token first.
		logger.WithCtx(ctx).Warn("reset token already consumed", zap.Int64("user_id", rec.UserID))
		s.limiter.Record(ctx, ip, models.ActionResetPassword, ip, userAgent, false)
		return ErrTokenInvalid
	}

	s.limiter.Record(ctx, ip, models.ActionResetPassword, ip, userAgent, true)
	logger.WithCtx(ctx).Info("password reset completed", zap.Int64("user_id", rec.UserID))
	return nil
}
