package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Well-known partition names in the local persistent store
const (
	PartitionConversations = "conversations"
	PartitionAgents        = "agents"
	PartitionSyncQueue     = "syncQueue"
	PartitionSyncState     = "syncState"
	PartitionFailedOps     = "failedOperations"
)

// Partitions возвращает все well-known партиции.
// ClearAll очищает именно этот набор.
func Partitions() []string {
	return []string{
		PartitionConversations,
		PartitionAgents,
		PartitionSyncQueue,
		PartitionSyncState,
		PartitionFailedOps,
	}
}

// Item представляет конверт, в котором значение хранится в партиции.
// Expiry в unix ms; 0 означает что запись не истекает. Чтение после
// Expiry обязано вести себя как отсутствие записи (lazy expiry).
type Item struct {
	ID        string          `json:"id"`
	Value     json.RawMessage `json:"value"`
	Timestamp int64           `json:"timestamp"` // unix ms записи
	Expiry    int64           `json:"expiry,omitempty"`
}

// Expired возвращает true, если у записи задан срок и он прошел
func (it *Item) Expired(nowMillis int64) bool {
	return it.Expiry > 0 && nowMillis >= it.Expiry
}

//go:generate go tool moq -out localstore_mock.go . LocalStore

// LocalStore defines interface for the partitioned client-side persistent store.
// Survives restarts; partitions are created on Init. No sync semantics here:
// the queue and the sync manager build on top of this contract.
type LocalStore interface {
	// Init opens the underlying database and creates all partitions.
	// Idempotent: concurrent and repeated calls share one initialization
	// and return its result.
	Init(ctx context.Context) error

	// Set upserts a value under (partition, key). ttl == 0 means no expiry;
	// otherwise the item expires at now+ttl and reads past that point
	// behave as if the item is absent.
	Set(ctx context.Context, partition, key string, value any, ttl time.Duration) error

	// Get unmarshals the stored value into out.
	// Returns ErrItemNotFound if the key is absent or expired; an expired
	// item is deleted as a side effect and never returned.
	Get(ctx context.Context, partition, key string, out any) error

	// GetAll returns raw values of all non-expired items in the partition.
	// Order is not guaranteed. Expired items encountered during the scan
	// are deleted.
	GetAll(ctx context.Context, partition string) ([]json.RawMessage, error)

	// GetAllByRecency returns raw values of all non-expired items in a
	// recency-indexed partition, ordered by the value's lastEditedAt,
	// newest first. Only the conversations partition carries the index;
	// other partitions return ErrUnknownPartition.
	GetAllByRecency(ctx context.Context, partition string) ([]json.RawMessage, error)

	// Delete removes one item. Deleting an absent key is not an error.
	Delete(ctx context.Context, partition, key string) error

	// Clear removes all items in one partition
	Clear(ctx context.Context, partition string) error

	// ClearAll removes all items across the well-known partitions.
	// Used on logout.
	ClearAll(ctx context.Context) error

	// Close closes the underlying database
	Close() error
}
