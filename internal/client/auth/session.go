package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/chatsync/internal/client/storage"
)

// sessionKey единственный ключ сессии в партиции syncState
const sessionKey = "session"

// sessionTTL срок хранения сессии в локальном хранилище. Совпадает со
// сроком жизни refresh токена: протухшая сессия вычищается лениво.
const sessionTTL = 30 * 24 * time.Hour

// Session represents the persisted state of a logged-in user
type Session struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds, срок access токена
}

// AccessExpired reports whether the access token needs a refresh
func (s *Session) AccessExpired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// SessionStore persists the current session in the local store.
// Одна сессия на устройство, ключ фиксированный.
type SessionStore struct {
	store storage.LocalStore
}

// NewSessionStore creates a session store on top of the local store
func NewSessionStore(store storage.LocalStore) *SessionStore {
	return &SessionStore{store: store}
}

// Save stores the session, replacing any previous one
func (s *SessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	if err := s.store.Set(ctx, storage.PartitionSyncState, sessionKey, session, sessionTTL); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns the stored session.
// Returns storage.ErrSessionNotFound if no session exists or it expired.
func (s *SessionStore) Get(ctx context.Context) (*Session, error) {
	var session Session
	err := s.store.Get(ctx, storage.PartitionSyncState, sessionKey, &session)
	if errors.Is(err, storage.ErrItemNotFound) {
		return nil, storage.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// Delete removes the stored session (logout)
func (s *SessionStore) Delete(ctx context.Context) error {
	if err := s.store.Delete(ctx, storage.PartitionSyncState, sessionKey); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a stored session exists
func (s *SessionStore) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.Get(ctx)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
