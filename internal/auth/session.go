package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// SessionManager owns the session lifecycle: Start on login, Resolve on
// every protected request, End on logout.
type SessionManager struct {
	store  repository.SessionRepository
	tokens *TokenService
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(store repository.SessionRepository, tokens *TokenService, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, tokens: tokens, ttl: ttl, now: time.Now}
}

func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Start records a new session for userID and returns it with the signed
// cookie value that refers to it.
func (m *SessionManager) Start(ctx context.Context, userID string) (*model.Session, string, error) {
	now := m.now().UTC()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("auth: creating session: %w", err)
	}

	token, err := m.tokens.Issue(session.ID, userID, session.ExpiresAt)
	if err != nil {
		_ = m.store.DeleteSession(ctx, session.ID)
		return nil, "", err
	}
	return session, token, nil
}

// Resolve maps a cookie value to its live session. Every way a cookie can
// be bad (forged, expired, logged out, bound to another user) comes back as
// apperror.ErrAuth; only store failures surface as other errors.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*model.Session, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, apperror.Unauthorized("valid session required")
	}

	session, err := m.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("session expired or logged out")
		}
		return nil, fmt.Errorf("auth: loading session: %w", err)
	}
	if session.UserID != claims.UserID || session.Expired(m.now()) {
		return nil, apperror.Unauthorized("valid session required")
	}
	return session, nil
}

// End destroys the session. It is safe to call for a session that is
// already gone.
func (m *SessionManager) End(ctx context.Context, sessionID string) error {
	if err := m.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("auth: destroying session: %w", err)
	}
	return nil
}

// Purge drops expired sessions from the store and reports how many went.
func (m *SessionManager) Purge(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("auth: purging sessions: %w", err)
	}
	return n, nil
}
