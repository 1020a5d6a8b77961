package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/chatsync/internal/models"
	"github.com/iudanet/chatsync/internal/server/storage"
	"github.com/iudanet/chatsync/pkg/api"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

// EntitiesHandler обрабатывает entity endpoints синхронизации.
// Партиция пользователя неявная: user_id приходит из JWT claims,
// положенных в контекст auth middleware.
type EntitiesHandler struct {
	logger  *slog.Logger
	storage storage.EntityStorage
}

// NewEntitiesHandler creates a new entities handler
func NewEntitiesHandler(logger *slog.Logger, entityStorage storage.EntityStorage) *EntitiesHandler {
	return &EntitiesHandler{
		logger:  logger,
		storage: entityStorage,
	}
}

// List обрабатывает GET /api/v1/entities/{kind}?page_token=&limit=
// Возвращает одну keyset-страницу метаданных без тел
func (h *EntitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	kind := r.PathValue("kind")
	if !models.IsKnownKind(kind) {
		h.sendError(w, "unknown entity kind", http.StatusBadRequest)
		return
	}

	limit := defaultPageLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.sendError(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}

	afterID, err := decodePageToken(r.URL.Query().Get("page_token"))
	if err != nil {
		h.sendError(w, "invalid page token", http.StatusBadRequest)
		return
	}

	// Запрашиваем на одну строку больше лимита, чтобы узнать есть ли
	// следующая страница без отдельного COUNT
	items, err := h.storage.ListMetadata(ctx, userID, kind, afterID, limit+1)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list metadata",
			slog.String("user_id", userID),
			slog.String("kind", kind),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page := api.MetadataPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextPageToken = encodePageToken(page.Items[limit-1].ID)
	}
	if page.Items == nil {
		page.Items = []api.EntityMetadata{}
	}

	h.sendJSON(w, page, http.StatusOK)
}

// Get обрабатывает GET /api/v1/entities/{kind}/{id}
// Возвращает полное тело сущности
func (h *EntitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	kind := r.PathValue("kind")
	id := r.PathValue("id")

	entity, err := h.storage.GetEntity(ctx, userID, kind, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			h.sendError(w, "entity not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get entity",
			slog.String("entity_id", id),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.EntityResponse{
		ID:           entity.ID,
		Version:      entity.Version,
		LastEditedAt: entity.LastEditedAt,
		Body:         entity.Body,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Put обрабатывает PUT /api/v1/entities/{kind}/{id}
// Сохраняет полную сущность по правилу last-writer-wins: устаревшая
// ревизия принимается идемпотентно, но не затирает более новую строку
func (h *EntitiesHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	kind := r.PathValue("kind")
	if !models.IsKnownKind(kind) {
		h.sendError(w, "unknown entity kind", http.StatusBadRequest)
		return
	}

	var req api.PutEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if req.ID != id {
		h.sendError(w, "entity id mismatch", http.StatusBadRequest)
		return
	}
	if req.Version <= 0 || req.LastEditedAt <= 0 {
		h.sendError(w, "version and last_edited_at must be positive", http.StatusBadRequest)
		return
	}
	if len(req.Body) == 0 {
		h.sendError(w, "body is required", http.StatusBadRequest)
		return
	}

	entity := &models.StoredEntity{
		UserID:       userID,
		Kind:         kind,
		ID:           id,
		Version:      req.Version,
		LastEditedAt: req.LastEditedAt,
		Body:         req.Body,
	}

	saved, err := h.storage.UpsertEntity(ctx, entity)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upsert entity",
			slog.String("entity_id", id),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !saved {
		h.logger.DebugContext(ctx, "stale put ignored",
			slog.String("entity_id", id),
			slog.Int64("version", req.Version))
	}

	resp := api.EntityResponse{
		ID:           id,
		Version:      req.Version,
		LastEditedAt: req.LastEditedAt,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/entities/{kind}/{id}
func (h *EntitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	kind := r.PathValue("kind")
	id := r.PathValue("id")

	if err := h.storage.DeleteEntity(ctx, userID, kind, id); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			h.sendError(w, "entity not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete entity",
			slog.String("entity_id", id),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EntitiesHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func (h *EntitiesHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// encodePageToken превращает последний id страницы в непрозрачный токен
func encodePageToken(lastID string) string {
	return base64.URLEncoding.EncodeToString([]byte(lastID))
}

// decodePageToken возвращает id, после которого начинается страница
func decodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
