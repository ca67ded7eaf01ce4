package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hdsm55/shababna-platform-sub002/internal/models"
	"github.com/hdsm55/shababna-platform-sub002/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

// In-memory reset_tokens table.
type memTokenRepo struct {
	mu      sync.Mutex
	tokens  []*models.ResetToken
	nextID  int64
	failing bool
	swept   chan struct{}
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{swept: make(chan struct{}, 16)}
}

func (m *memTokenRepo) Replace(_ context.Context, t *models.ResetToken) error {
	if m.failing {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.tokens[:0]
	for _, old := range m.tokens {
		if old.UserID != t.UserID {
			kept = append(kept, old)
		}
	}
	m.tokens = kept

	m.nextID++
	cp := *t
	cp.ID = m.nextID
	t.ID = cp.ID
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *memTokenRepo) GetActiveByHash(_ context.Context, tokenHash string) (*models.ResetToken, error) {
	if m.failing {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash && t.Active(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokenRepo) Consume(_ context.Context, tokenHash string) (bool, error) {
	if m.failing {
		return false, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash && t.Active(now) {
			used := now
			t.UsedAt = &used
			return true, nil
		}
	}
	return false, nil
}

func (m *memTokenRepo) DeleteExpiredOrUsed(_ context.Context) (int64, error) {
	if m.failing {
		return 0, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var deleted int64
	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if t.UsedAt != nil || t.ExpiresAt.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept

	select {
	case m.swept <- struct{}{}:
	default:
	}
	return deleted, nil
}

// expireToken backdates a stored token so tests can cross the TTL without
// sleeping.
func (m *memTokenRepo) expireToken(tokenHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash {
			t.ExpiresAt = time.Now().Add(-time.Minute)
		}
	}
}

// In-memory attempt_logs table.
type memAttemptRepo struct {
	mu      sync.Mutex
	rows    []*models.AttemptLog
	nextID  int64
	failing bool
}

func newMemAttemptRepo() *memAttemptRepo {
	return &memAttemptRepo{}
}

func (m *memAttemptRepo) Insert(_ context.Context, a *models.AttemptLog) error {
	if m.failing {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	cp := *a
	cp.ID = m.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memAttemptRepo) CountInWindow(_ context.Context, identifier, action string, since time.Time) (int64, *time.Time, error) {
	if m.failing {
		return 0, nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	var last *time.Time
	for _, a := range m.rows {
		if a.Identifier != identifier || a.Action != action || !a.CreatedAt.After(since) {
			continue
		}
		count++
		if last == nil || a.CreatedAt.After(*last) {
			t := a.CreatedAt
			last = &t
		}
	}
	return count, last, nil
}

func (m *memAttemptRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if m.failing {
		return 0, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	kept := m.rows[:0]
	for _, a := range m.rows {
		if a.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	m.rows = kept
	return deleted, nil
}

func (m *memAttemptRepo) seed(identifier, action string, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.rows = append(m.rows, &models.AttemptLog{
		ID:         m.nextID,
		Identifier: identifier,
		Action:     action,
		IP:         identifier,
		CreatedAt:  createdAt,
	})
}

func (m *memAttemptRepo) all() []models.AttemptLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AttemptLog, 0, len(m.rows))
	for _, a := range m.rows {
		out = append(out, *a)
	}
	return out
}

// In-memory users table.
type memUserRepo struct {
	mu       sync.Mutex
	byEmail  map[string]*models.User
	lastHash string
	failing  bool
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	m := &memUserRepo{byEmail: make(map[string]*models.User)}
	for _, u := range users {
		m.byEmail[u.Email] = u
	}
	return m
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if m.failing {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if m.failing {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			m.lastHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

// Notifier double recording every send.
type mockNotifier struct {
	mu   sync.Mutex
	fail bool
	sent []sentEmail
}

type sentEmail struct {
	to        string
	token     string
	firstName string
}

func (m *mockNotifier) SendResetEmail(_ context.Context, to, token, firstName string) error {
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{to: to, token: token, firstName: firstName})
	return nil
}

func (m *mockNotifier) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].token
}

// Hasher double, to keep tests off bcrypt's cost.
type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}
