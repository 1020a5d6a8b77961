package storage

import (
	"context"

	"github.com/iudanet/chatsync/internal/models"
	"github.com/iudanet/chatsync/pkg/api"
)

// EntityStorage defines interface for synced entity persistence.
// Метаданные и тела лежат в разных таблицах: листинг метаданных при
// начальной синхронизации не должен поднимать с диска тяжелые тела.
type EntityStorage interface {
	// UpsertEntity creates or updates an entity using last-writer-wins:
	// the incoming revision is saved only if it is newer than the stored
	// one (higher version, ties broken by lastEditedAt).
	// Returns true if the entity was saved, false if the stored revision won.
	UpsertEntity(ctx context.Context, entity *models.StoredEntity) (bool, error)

	// GetEntity retrieves a single entity with its body
	// Returns ErrEntityNotFound if entity doesn't exist
	GetEntity(ctx context.Context, userID, kind, id string) (*models.StoredEntity, error)

	// ListMetadata returns up to limit metadata rows for a user and kind,
	// ordered by id, starting after afterID (keyset pagination).
	// Empty afterID starts from the beginning.
	ListMetadata(ctx context.Context, userID, kind, afterID string, limit int) ([]api.EntityMetadata, error)

	// DeleteEntity removes an entity and its body
	// Returns ErrEntityNotFound if entity doesn't exist
	DeleteEntity(ctx context.Context, userID, kind, id string) error
}
