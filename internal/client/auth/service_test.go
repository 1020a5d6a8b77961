package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/client/storage/boltdb"
	"github.com/iudanet/chatsync/pkg/api"
)

// mockClient implements Client for testing
type mockClient struct {
	registerResp *api.RegisterResponse
	registerErr  error
	loginResp    *api.TokenResponse
	loginErr     error
	refreshResp  *api.TokenResponse
	refreshErr   error

	token        string
	refreshCalls int
}

func (m *mockClient) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.registerResp, nil
}

func (m *mockClient) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResp, nil
}

func (m *mockClient) Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error) {
	m.refreshCalls++
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.refreshResp, nil
}

func (m *mockClient) SetToken(token string) {
	m.token = token
}

func newTestService(t *testing.T, client *mockClient) *Service {
	t.Helper()

	store := boltdb.New(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(client, NewSessionStore(store), logger)
}

func TestLogin_SavesSessionAndSetsToken(t *testing.T) {
	client := &mockClient{
		loginResp: &api.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			UserID:       "u1",
			ExpiresIn:    900,
		},
	}
	svc := newTestService(t, client)
	ctx := context.Background()

	session, err := svc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, "access-1", client.token)

	ok, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLogin_ValidationErrors(t *testing.T) {
	svc := newTestService(t, &mockClient{})
	ctx := context.Background()

	_, err := svc.Login(ctx, "", "long enough password")
	assert.Error(t, err)

	_, err = svc.Login(ctx, "alice", "short")
	assert.Error(t, err)

	ok, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_LogsInAfterRegistration(t *testing.T) {
	client := &mockClient{
		registerResp: &api.RegisterResponse{UserID: "u1"},
		loginResp: &api.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			UserID:       "u1",
			ExpiresIn:    900,
		},
	}
	svc := newTestService(t, client)

	session, err := svc.Register(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "access-1", client.token)
}

func TestRegister_ServerError(t *testing.T) {
	client := &mockClient{registerErr: fmt.Errorf("username taken")}
	svc := newTestService(t, client)

	_, err := svc.Register(context.Background(), "alice", "correct horse battery")
	assert.ErrorContains(t, err, "registration failed")
}

func TestRestore_NoSession(t *testing.T) {
	svc := newTestService(t, &mockClient{})

	_, err := svc.Restore(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestRestore_ValidSession(t *testing.T) {
	client := &mockClient{
		loginResp: &api.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			UserID:       "u1",
			ExpiresIn:    900,
		},
	}
	svc := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	client.token = ""
	session, err := svc.Restore(ctx)
	require.NoError(t, err)

	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "access-1", client.token)
	assert.Zero(t, client.refreshCalls)
}

func TestRestore_ExpiredAccessTokenIsRefreshed(t *testing.T) {
	client := &mockClient{
		loginResp: &api.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			UserID:       "u1",
			ExpiresIn:    -10, // access уже протух
		},
		refreshResp: &api.TokenResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			UserID:       "u1",
			ExpiresIn:    900,
		},
	}
	svc := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	session, err := svc.Restore(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, client.refreshCalls)
	assert.Equal(t, "access-2", session.AccessToken)
	assert.Equal(t, "refresh-2", session.RefreshToken)
	assert.Equal(t, "access-2", client.token)

	// Обновленная сессия персистирована
	restored, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", restored.AccessToken)
	assert.Equal(t, 1, client.refreshCalls)
}

func TestLogout_RemovesSessionAndClearsToken(t *testing.T) {
	client := &mockClient{
		loginResp: &api.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			UserID:       "u1",
			ExpiresIn:    900,
		},
	}
	svc := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))

	assert.Empty(t, client.token)

	ok, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Restore(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestSession_AccessExpired(t *testing.T) {
	now := time.Now()
	session := &Session{ExpiresAt: now.Add(time.Minute).Unix()}

	assert.False(t, session.AccessExpired(now))
	assert.True(t, session.AccessExpired(now.Add(2*time.Minute)))
}
