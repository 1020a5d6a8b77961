package remote

import (
	"context"
	"errors"

	"github.com/iudanet/chatsync/pkg/api"
)

// ErrEntityNotFound indicates that entity is absent on the remote side
var ErrEntityNotFound = errors.New("entity not found")

//go:generate go tool moq -out store_mock.go . Store

// Store defines the remote entity store adapter.
// Партиция пользователя неявная: сервер выводит её из bearer токена.
// Тела сущностей большие и хранятся отдельно от метаданных, поэтому
// листинг метаданных дешевый и не тянет тела.
type Store interface {
	// FetchEntity retrieves one full entity body.
	// Returns ErrEntityNotFound if entity doesn't exist remotely.
	FetchEntity(ctx context.Context, kind, id string) (*api.EntityResponse, error)

	// FetchAllMetadata returns one page of lightweight entity metadata
	// (id, version, lastEditedAt) for cheap version diffing.
	// pageToken пустой для первой страницы; NextPageToken пустой в ответе
	// означает конец списка.
	FetchAllMetadata(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error)

	// PutEntity stores a full entity (create or whole-entity replace)
	PutEntity(ctx context.Context, kind string, req *api.PutEntityRequest) error

	// DeleteEntity removes an entity. Удаление отсутствующей сущности
	// идемпотентно и не ошибка.
	DeleteEntity(ctx context.Context, kind, id string) error
}
