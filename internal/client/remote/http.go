package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/chatsync/pkg/api"
)

// Client представляет HTTP реализацию адаптера удаленного хранилища
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Compile-time check that Client implements Store
var _ Store = (*Client)(nil)

// NewClient создает новый HTTP адаптер удаленного хранилища
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetToken устанавливает bearer токен для всех последующих запросов
func (c *Client) SetToken(token string) {
	c.token = token
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обновляет access token по refresh token
func (c *Client) Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", req, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// FetchEntity retrieves one full entity body
func (c *Client) FetchEntity(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
	var resp api.EntityResponse
	path := fmt.Sprintf("/api/v1/entities/%s/%s", url.PathEscape(kind), url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch entity request failed: %w", err)
	}
	return &resp, nil
}

// FetchAllMetadata returns one page of entity metadata
func (c *Client) FetchAllMetadata(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
	query := url.Values{}
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/api/v1/entities/%s", url.PathEscape(kind))
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp api.MetadataPage
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch metadata request failed: %w", err)
	}
	return &resp, nil
}

// PutEntity stores a full entity
func (c *Client) PutEntity(ctx context.Context, kind string, req *api.PutEntityRequest) error {
	path := fmt.Sprintf("/api/v1/entities/%s/%s", url.PathEscape(kind), url.PathEscape(req.ID))
	if err := c.doRequest(ctx, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("put entity request failed: %w", err)
	}
	return nil
}

// DeleteEntity removes an entity
func (c *Client) DeleteEntity(ctx context.Context, kind, id string) error {
	path := fmt.Sprintf("/api/v1/entities/%s/%s", url.PathEscape(kind), url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		// Удаление уже отсутствующей сущности идемпотентно
		if errors.Is(err, ErrEntityNotFound) {
			return nil
		}
		return fmt.Errorf("delete entity request failed: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// 404 на сущности маппится в типизированную ошибку
	if resp.StatusCode == http.StatusNotFound {
		return ErrEntityNotFound
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
