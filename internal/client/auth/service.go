package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/chatsync/pkg/api"
)

// minPasswordLength минимальная длина пароля, сервер валидирует так же
const minPasswordLength = 8

// Client describes the part of the remote API the auth service needs
type Client interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)
	Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error)
	SetToken(token string)
}

// Service предоставляет функции авторизации: регистрация, вход,
// восстановление сессии между запусками и выход
type Service struct {
	apiClient Client
	sessions  *SessionStore
	logger    *slog.Logger
}

// NewService создает новый сервис авторизации
func NewService(apiClient Client, sessions *SessionStore, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		sessions:  sessions,
		logger:    logger,
	}
}

// Register регистрирует нового пользователя и сразу выполняет вход
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("User registered", "user_id", resp.UserID, "username", username)

	return s.Login(ctx, username, password)
}

// Login выполняет аутентификацию пользователя и сохраняет сессию
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Login(ctx, api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	session := &Session{
		UserID:       resp.UserID,
		Username:     username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Unix() + resp.ExpiresIn,
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.apiClient.SetToken(session.AccessToken)
	s.logger.Info("User logged in", "user_id", session.UserID, "username", username)

	return session, nil
}

// Restore загружает сохраненную сессию и устанавливает токен в API клиент.
// Протухший access token прозрачно обновляется по refresh token.
// Returns storage.ErrSessionNotFound when no session is stored.
func (s *Service) Restore(ctx context.Context) (*Session, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}

	if session.AccessExpired(time.Now()) {
		return s.refresh(ctx, session)
	}

	s.apiClient.SetToken(session.AccessToken)
	return session, nil
}

// RefreshSession форсирует обновление токенов текущей сессии
func (s *Service) RefreshSession(ctx context.Context) (*Session, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, session)
}

// Logout удаляет локальную сессию. Синхронизированные данные и очередь
// операций не трогаются: они переживают выход из системы.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Delete(ctx); err != nil {
		return err
	}
	s.apiClient.SetToken("")
	s.logger.Info("User logged out")
	return nil
}

// IsAuthenticated проверяет наличие сохраненной сессии
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.sessions.IsAuthenticated(ctx)
}

func (s *Service) refresh(ctx context.Context, session *Session) (*Session, error) {
	resp, err := s.apiClient.Refresh(ctx, api.RefreshRequest{
		RefreshToken: session.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	session.AccessToken = resp.AccessToken
	session.RefreshToken = resp.RefreshToken
	session.ExpiresAt = time.Now().Unix() + resp.ExpiresIn

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.apiClient.SetToken(session.AccessToken)
	s.logger.Debug("Session refreshed", "user_id", session.UserID)

	return session, nil
}

func validateCredentials(username, password string) error {
	if username == "" {
		return fmt.Errorf("username is empty")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
