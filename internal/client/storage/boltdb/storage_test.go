package boltdb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s := New(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func TestInit_Idempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "client.db"))
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))
}

func TestInit_Concurrent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "client.db"))
	defer s.Close()

	// Конкурентные вызовы Init разделяют одну инициализацию
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = s.Init(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestNotInitialized(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "client.db"))
	ctx := context.Background()

	err := s.Set(ctx, storage.PartitionAgents, "a1", "value", 0)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	err = s.Get(ctx, storage.PartitionAgents, "a1", nil)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	_, err = s.GetAll(ctx, storage.PartitionAgents)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, s.Set(ctx, storage.PartitionAgents, "a1", payload{Name: "x", Count: 3}, 0))

	var got payload
	require.NoError(t, s.Get(ctx, storage.PartitionAgents, "a1", &got))
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestGet_Missing(t *testing.T) {
	s := newTestStorage(t)

	err := s.Get(context.Background(), storage.PartitionAgents, "nope", nil)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestGet_UnknownPartition(t *testing.T) {
	s := newTestStorage(t)

	err := s.Get(context.Background(), "widgets", "w1", nil)
	assert.ErrorIs(t, err, storage.ErrUnknownPartition)
}

func TestTTL_LazyExpiry(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, storage.PartitionSyncState, "session", "tok", 100*time.Millisecond))

	// До истечения срока запись читается
	var val string
	require.NoError(t, s.Get(ctx, storage.PartitionSyncState, "session", &val))
	assert.Equal(t, "tok", val)

	time.Sleep(150 * time.Millisecond)

	// После истечения запись отсутствует и лениво удаляется
	err := s.Get(ctx, storage.PartitionSyncState, "session", &val)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	values, err := s.GetAll(ctx, storage.PartitionSyncState)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestGetAll_SkipsAndDeletesExpired(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, storage.PartitionConversations, "c1", "live", 0))
	require.NoError(t, s.Set(ctx, storage.PartitionConversations, "c2", "dying", 50*time.Millisecond))

	time.Sleep(100 * time.Millisecond)

	values, err := s.GetAll(ctx, storage.PartitionConversations)
	require.NoError(t, err)
	require.Len(t, values, 1)

	var got string
	require.NoError(t, json.Unmarshal(values[0], &got))
	assert.Equal(t, "live", got)

	// Истекший ключ удален физически
	err = s.Get(ctx, storage.PartitionConversations, "c2", nil)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, storage.PartitionAgents, "a1", "v", 0))
	require.NoError(t, s.Delete(ctx, storage.PartitionAgents, "a1"))

	err := s.Get(ctx, storage.PartitionAgents, "a1", nil)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	// Повторное удаление не ошибка
	require.NoError(t, s.Delete(ctx, storage.PartitionAgents, "a1"))
}

func TestClear_ScopedToPartition(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, storage.PartitionAgents, "a1", "v", 0))
	require.NoError(t, s.Set(ctx, storage.PartitionConversations, "c1", "v", 0))

	require.NoError(t, s.Clear(ctx, storage.PartitionAgents))

	agents, err := s.GetAll(ctx, storage.PartitionAgents)
	require.NoError(t, err)
	assert.Empty(t, agents)

	convs, err := s.GetAll(ctx, storage.PartitionConversations)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestClearAll(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, partition := range storage.Partitions() {
		require.NoError(t, s.Set(ctx, partition, "k", "v", 0))
	}

	require.NoError(t, s.ClearAll(ctx))

	for _, partition := range storage.Partitions() {
		values, err := s.GetAll(ctx, partition)
		require.NoError(t, err)
		assert.Empty(t, values, "partition %q should be empty", partition)
	}
}

func TestSet_Overwrite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, storage.PartitionAgents, "a1", "old", 0))
	require.NoError(t, s.Set(ctx, storage.PartitionAgents, "a1", "new", 0))

	var got string
	require.NoError(t, s.Get(ctx, storage.PartitionAgents, "a1", &got))
	assert.Equal(t, "new", got)
}

func setConv(t *testing.T, s *Storage, id string, editedAt int64) {
	t.Helper()

	conv := models.Conversation{ID: id, Title: id, LastEditedAt: editedAt, Version: 1}
	require.NoError(t, s.Set(context.Background(), storage.PartitionConversations, id, &conv, 0))
}

func recencyIDs(t *testing.T, s *Storage) []string {
	t.Helper()

	values, err := s.GetAllByRecency(context.Background(), storage.PartitionConversations)
	require.NoError(t, err)

	ids := make([]string, 0, len(values))
	for _, raw := range values {
		var conv models.Conversation
		require.NoError(t, json.Unmarshal(raw, &conv))
		ids = append(ids, conv.ID)
	}
	return ids
}

func TestGetAllByRecency_NewestFirst(t *testing.T) {
	s := newTestStorage(t)

	// Порядок вставки не совпадает с порядком редактирования
	setConv(t, s, "c-old", 1000)
	setConv(t, s, "c-new", 3000)
	setConv(t, s, "c-mid", 2000)

	assert.Equal(t, []string{"c-new", "c-mid", "c-old"}, recencyIDs(t, s))
}

func TestGetAllByRecency_ReorderOnUpdate(t *testing.T) {
	s := newTestStorage(t)

	setConv(t, s, "c1", 1000)
	setConv(t, s, "c2", 2000)

	// Повторная запись со свежим lastEditedAt поднимает диалог наверх
	setConv(t, s, "c1", 3000)

	assert.Equal(t, []string{"c1", "c2"}, recencyIDs(t, s))
}

func TestGetAllByRecency_DeleteDropsIndexEntry(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	setConv(t, s, "c1", 1000)
	setConv(t, s, "c2", 2000)

	require.NoError(t, s.Delete(ctx, storage.PartitionConversations, "c2"))

	assert.Equal(t, []string{"c1"}, recencyIDs(t, s))
}

func TestGetAllByRecency_SkipsAndDeletesExpired(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	setConv(t, s, "c-live", 1000)

	conv := models.Conversation{ID: "c-dying", LastEditedAt: 2000, Version: 1}
	require.NoError(t, s.Set(ctx, storage.PartitionConversations, conv.ID, &conv, 50*time.Millisecond))

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []string{"c-live"}, recencyIDs(t, s))

	// Истекший ключ удален физически вместе с индексной записью
	err := s.Get(ctx, storage.PartitionConversations, "c-dying", nil)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
	assert.Equal(t, []string{"c-live"}, recencyIDs(t, s))
}

func TestGetAllByRecency_UnindexedPartition(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetAllByRecency(context.Background(), storage.PartitionAgents)
	assert.ErrorIs(t, err, storage.ErrUnknownPartition)
}

func TestClear_ResetsRecencyIndex(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	setConv(t, s, "c1", 1000)
	require.NoError(t, s.Clear(ctx, storage.PartitionConversations))

	assert.Empty(t, recencyIDs(t, s))

	// Индекс продолжает работать после очистки
	setConv(t, s, "c2", 2000)
	assert.Equal(t, []string{"c2"}, recencyIDs(t, s))
}
