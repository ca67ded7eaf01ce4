package services

import (
	"context"
	"time"

	"github.com/hdsm55/shababna-platform-sub002/internal/logger"
	"github.com/hdsm55/shababna-platform-sub002/internal/models"
	"github.com/hdsm55/shababna-platform-sub002/internal/repository"

	"go.uber.org/zap"
)

// Decision is the admission verdict for one identifier+action pair.
// ResetTime estimates when the window frees up: last attempt + window. The
// window is a fixed look-back recounted on every call, not a rolling bucket.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

type RateLimitService struct {
	repo     repository.AttemptLogRepo
	policies map[string]models.RateLimitPolicy
}

func NewRateLimitService(repo repository.AttemptLogRepo) *RateLimitService {
	return &RateLimitService{
		repo: repo,
		policies: map[string]models.RateLimitPolicy{
			models.ActionForgotPassword: {MaxAttempts: 5, WindowMinutes: 60, BlockMinutes: 60},
			models.ActionResetPassword:  {MaxAttempts: 3, WindowMinutes: 30, BlockMinutes: 30},
		},
	}
}

// Check counts recent attempts and decides admission. When the store is
// unavailable it fails open: denying here would lock every user out for the
// whole outage, which is the worse failure mode for a reset endpoint.
func (s *RateLimitService) Check(ctx context.Context, identifier, action string) Decision {
	p, ok := s.policies[action]
	if !ok {
		logger.Log.Warn("no rate limit policy for action, allowing", zap.String("action", action))
		return Decision{Allowed: true}
	}

	count, last, err := s.repo.CountInWindow(ctx, identifier, action, time.Now().Add(-p.Window()))
	if err != nil {
		logger.Log.Warn("rate limit check failed, failing open",
			zap.String("identifier", identifier),
			zap.String("action", action),
			zap.Error(err),
		)
		return Decision{Allowed: true, Remaining: p.MaxAttempts}
	}

	remaining := p.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{
		Allowed:   count < int64(p.MaxAttempts),
		Remaining: remaining,
	}
	if last != nil {
		d.ResetTime = last.Add(p.Window())
	}
	return d
}

// Record appends an attempt row unconditionally. The success flag is an audit
// note about the operation's outcome; admission never depends on it.
func (s *RateLimitService) Record(ctx context.Context, identifier, action, ip, userAgent string, success bool) {
	err := s.repo.Insert(ctx, &models.AttemptLog{
		Identifier: identifier,
		Action:     action,
		IP:         ip,
		UserAgent:  userAgent,
		Success:    success,
	})
	if err != nil {
		logger.Log.Error("attempt log insert failed",
			zap.String("identifier", identifier),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// Policy exposes the compiled-in policy for an action, mostly for tests and
// handler retry hints.
func (s *RateLimitService) Policy(action string) (models.RateLimitPolicy, bool) {
	p, ok := s.policies[action]
	return p, ok
}
