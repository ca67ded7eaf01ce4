package services

import (
	"context"
	"sync"
	"time"

	"github.com/hdsm55/shababna-platform-sub002/internal/logger"
	"github.com/hdsm55/shababna-platform-sub002/internal/repository"

	"go.uber.org/zap"
)

// Attempt logs are kept for auditing, then dropped.
const attemptLogRetention = 7 * 24 * time.Hour

// CleanupService periodically deletes expired/used tokens and stale attempt
// logs. Start and Stop are idempotent; Stop releases the ticker so shutdown
// does not leak the goroutine.
type CleanupService struct {
	tokens   repository.ResetTokenRepo
	attempts repository.AttemptLogRepo

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

func NewCleanupService(tokens repository.ResetTokenRepo, attempts repository.AttemptLogRepo) *CleanupService {
	return &CleanupService{tokens: tokens, attempts: attempts}
}

// Start runs an immediate sweep, then repeats on the interval.
func (s *CleanupService) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logger.Log.Warn("cleanup scheduler already running")
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	s.running = true
	s.done = make(chan struct{})
	go s.run(interval, s.done)

	logger.Log.Info("cleanup scheduler started", zap.Duration("interval", interval))
}

func (s *CleanupService) run(interval time.Duration, done chan struct{}) {
	s.Sweep(context.Background())

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Sweep(context.Background())
		case <-done:
			return
		}
	}
}

func (s *CleanupService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.done)
	s.running = false
	logger.Log.Info("cleanup scheduler stopped")
}

// Sweep deletes exactly the tokens that are expired or used and the attempt
// logs past retention. Failures are logged; the next tick retries.
func (s *CleanupService) Sweep(ctx context.Context) {
	tokensDeleted, err := s.tokens.DeleteExpiredOrUsed(ctx)
	if err != nil {
		logger.Log.Error("reset token sweep failed", zap.Error(err))
	}

	logsDeleted, err := s.attempts.DeleteOlderThan(ctx, time.Now().Add(-attemptLogRetention))
	if err != nil {
		logger.Log.Error("attempt log sweep failed", zap.Error(err))
	}

	logger.Log.Info("retention sweep finished",
		zap.Int64("tokens_deleted", tokensDeleted),
		zap.Int64("attempt_logs_deleted", logsDeleted),
	)
}
