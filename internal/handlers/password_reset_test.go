package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hdsm55/shababna-platform-sub002/internal/handlers"
	"github.com/hdsm55/shababna-platform-sub002/internal/models"
	"github.com/hdsm55/shababna-platform-sub002/internal/repository"
	"github.com/hdsm55/shababna-platform-sub002/internal/routes"
	"github.com/hdsm55/shababna-platform-sub002/internal/services"

	"github.com/gorilla/mux"
)

// Minimal in-memory stand-ins for the three repositories.

type memTokenRepo struct {
	mu      sync.Mutex
	tokens  []*models.ResetToken
	nextID  int64
	failing bool
}

func (m *memTokenRepo) Replace(_ context.Context, t *models.ResetToken) error {
	if m.failing {
		return errors.New("store unavailable")
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
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *memTokenRepo) GetActiveByHash(_ context.Context, tokenHash string) (*models.ResetToken, error) {
	if m.failing {
		return nil, errors.New("store unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash && t.Active(time.Now()) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokenRepo) Consume(_ context.Context, tokenHash string) (bool, error) {
	if m.failing {
		return false, errors.New("store unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash && t.Active(time.Now()) {
			used := time.Now()
			t.UsedAt = &used
			return true, nil
		}
	}
	return false, nil
}

func (m *memTokenRepo) DeleteExpiredOrUsed(_ context.Context) (int64, error) { return 0, nil }

type memAttemptRepo struct {
	mu   sync.Mutex
	rows []*models.AttemptLog
}

func (m *memAttemptRepo) Insert(_ context.Context, a *models.AttemptLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memAttemptRepo) CountInWindow(_ context.Context, identifier, action string, since time.Time) (int64, *time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	var last *time.Time
	for _, a := range m.rows {
		if a.Identifier == identifier && a.Action == action && a.CreatedAt.After(since) {
			count++
			t := a.CreatedAt
			if last == nil || t.After(*last) {
				last = &t
			}
		}
	}
	return count, last, nil
}

func (m *memAttemptRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memUserRepo struct {
	users map[string]*models.User
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

type captureNotifier struct {
	mu     sync.Mutex
	tokens []string
}

func (n *captureNotifier) SendResetEmail(_ context.Context, _, token, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens = append(n.tokens, token)
	return nil
}

func (n *captureNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.tokens) == 0 {
		return ""
	}
	return n.tokens[len(n.tokens)-1]
}

type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func newTestRouter() (*mux.Router, *captureNotifier, *memTokenRepo) {
	users := &memUserRepo{users: map[string]*models.User{
		"u@example.com": {ID: 1, FirstName: "Youssef", Email: "u@example.com"},
	}}
	notifier := &captureNotifier{}
	tokenRepo := &memTokenRepo{}
	svc := services.NewPasswordResetService(
		services.NewTokenService(tokenRepo, time.Hour),
		services.NewRateLimitService(&memAttemptRepo{}),
		users,
		notifier,
		stubHasher{},
	)

	router := mux.NewRouter()
	routes.InitRoutes(router, handlers.NewPasswordResetHandler(svc))
	return router, notifier, tokenRepo
}

func doJSON(router *mux.Router, method, path, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestResetFlowOverHTTP(t *testing.T) {
	router, notifier, _ := newTestRouter()

	rr := doJSON(router, http.MethodPost, "/api/forgot-password", `{"email":"u@example.com"}`, "192.0.2.1")
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password: got %d", rr.Code)
	}
	token := notifier.last()
	if token == "" {
		t.Fatal("no reset email captured")
	}

	rr = doJSON(router, http.MethodGet, "/api/reset-password?token="+token, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("validate link: got %d, body %s", rr.Code, rr.Body.String())
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if envelope.Data["email"] != "u@example.com" {
		t.Fatalf("wrong account on the reset form: %v", envelope.Data)
	}

	body := fmt.Sprintf(`{"token":%q,"password":"NewPass123"}`, token)
	rr = doJSON(router, http.MethodPost, "/api/reset-password", body, "192.0.2.1")
	if rr.Code != http.StatusOK {
		t.Fatalf("reset: got %d, body %s", rr.Code, rr.Body.String())
	}

	// The link is dead afterwards.
	rr = doJSON(router, http.MethodGet, "/api/reset-password?token="+token, "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("spent token should give 400, got %d", rr.Code)
	}
}

func TestUnknownEmailBodyIsIdentical(t *testing.T) {
	router, notifier, _ := newTestRouter()

	known := doJSON(router, http.MethodPost, "/api/forgot-password", `{"email":"u@example.com"}`, "192.0.2.2")
	unknown := doJSON(router, http.MethodPost, "/api/forgot-password", `{"email":"nobody@example.com"}`, "192.0.2.3")

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("both must answer 200, got %d and %d", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", known.Body.String(), unknown.Body.String())
	}
	if len(notifier.tokens) != 1 {
		t.Fatalf("exactly one email expected, got %d", len(notifier.tokens))
	}
}

func TestForgotPasswordRateLimitOverHTTP(t *testing.T) {
	router, _, _ := newTestRouter()

	const ip = "203.0.113.9"
	for i := 0; i < 5; i++ {
		rr := doJSON(router, http.MethodPost, "/api/forgot-password", `{"email":"u@example.com"}`, ip)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, rr.Code)
		}
	}

	rr := doJSON(router, http.MethodPost, "/api/forgot-password", `{"email":"u@example.com"}`, ip)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth request should get 429, got %d", rr.Code)
	}

	var envelope struct {
		Error      string     `json:"error"`
		RetryAfter *time.Time `json:"retry_after"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad 429 body: %v", err)
	}
	if envelope.RetryAfter == nil || !envelope.RetryAfter.After(time.Now()) {
		t.Fatalf("retry_after should be a future timestamp, got %v", envelope.RetryAfter)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}

	// A different client is unaffected.
	rr = doJSON(router, http.MethodPost, "/api/forgot-password", `{"email":"u@example.com"}`, "203.0.113.10")
	if rr.Code != http.StatusOK {
		t.Fatalf("other ip should pass, got %d", rr.Code)
	}
}

func TestStoreOutageAnswersServerError(t *testing.T) {
	router, notifier, tokenRepo := newTestRouter()

	rr := doJSON(router, http.MethodPost, "/api/forgot-password", `{"email":"u@example.com"}`, "192.0.2.9")
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password: got %d", rr.Code)
	}
	token := notifier.last()

	tokenRepo.failing = true

	if rr := doJSON(router, http.MethodGet, "/api/reset-password?token="+token, "", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("link check during an outage should give 500, got %d", rr.Code)
	}
	body := fmt.Sprintf(`{"token":%q,"password":"NewPass123"}`, token)
	if rr := doJSON(router, http.MethodPost, "/api/reset-password", body, "192.0.2.9"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("reset during an outage should give 500, got %d", rr.Code)
	}
}

func TestRejectsInvalidPayloads(t *testing.T) {
	router, _, _ := newTestRouter()

	if rr := doJSON(router, http.MethodPost, "/api/forgot-password", `{}`, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty email: got %d", rr.Code)
	}
	if rr := doJSON(router, http.MethodPost, "/api/reset-password", `{"token":"x"}`, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing password: got %d", rr.Code)
	}
	if rr := doJSON(router, http.MethodGet, "/api/reset-password", "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing token: got %d", rr.Code)
	}
}
