package syncmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatsync/internal/client/queue"
	"github.com/iudanet/chatsync/internal/client/remote"
	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/client/storage/boltdb"
	"github.com/iudanet/chatsync/internal/models"
	"github.com/iudanet/chatsync/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// emptyRemote возвращает mock с пустым сервером: нет сущностей, все
// операции доставки успешны
func emptyRemote() *remote.StoreMock {
	return &remote.StoreMock{
		FetchAllMetadataFunc: func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
			return &api.MetadataPage{}, nil
		},
		FetchEntityFunc: func(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
			return nil, remote.ErrEntityNotFound
		},
		PutEntityFunc: func(ctx context.Context, kind string, req *api.PutEntityRequest) error {
			return nil
		},
		DeleteEntityFunc: func(ctx context.Context, kind, id string) error {
			return nil
		},
	}
}

func newTestManager(t *testing.T, remoteStore remote.Store) (*Manager, storage.LocalStore) {
	t.Helper()

	local := boltdb.New(filepath.Join(t.TempDir(), "sync.db"))
	t.Cleanup(func() { _ = local.Close() })

	m := New(local, remoteStore, testLogger(),
		Config{BatchSize: 10, BatchDelay: time.Millisecond},
		queue.Config{MaxRetries: 3, BaseDelay: time.Millisecond})
	t.Cleanup(func() { m.Cleanup(context.Background()) })

	return m, local
}

func entityBody(t *testing.T, entity models.Syncable) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(entity)
	require.NoError(t, err)
	return data
}

// statusRecorder потокобезопасно копит переходы статусов
type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) count(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.statuses {
		if got == s {
			n++
		}
	}
	return n
}

func (r *statusRecorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

func TestInitialize_Idempotent(t *testing.T) {
	m, _ := newTestManager(t, emptyRemote())
	ctx := context.Background()

	require.NoError(t, m.Initialize(ctx, "u1"))
	// Повторный вызов - no-op, первая сессия остается рабочей
	require.NoError(t, m.Initialize(ctx, "u2"))

	agent := &models.Agent{ID: "a1", Name: "x", Version: 1, LastEditedAt: 100}
	require.NoError(t, m.Sync(ctx, agent, models.OpCreate))
}

func TestInitialize_Concurrent(t *testing.T) {
	m, _ := newTestManager(t, emptyRemote())
	ctx := context.Background()

	rec := &statusRecorder{}
	unsubscribe := m.Subscribe(rec.record)
	defer unsubscribe()

	// Конкурентные вызовы: тело инициализации выполняется ровно один раз
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = m.Initialize(ctx, fmt.Sprintf("u%d", n))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, rec.count(StatusInitializing))
	assert.Equal(t, StatusIdle, m.Status())

	agent := &models.Agent{ID: "a1", Name: "x", Version: 1, LastEditedAt: 100}
	require.NoError(t, m.Sync(ctx, agent, models.OpCreate))
}

func TestInitialize_LocalInitFailure(t *testing.T) {
	localErr := fmt.Errorf("disk is full")
	local := &storage.LocalStoreMock{
		InitFunc: func(ctx context.Context) error { return localErr },
	}

	m := New(local, emptyRemote(), testLogger(),
		Config{BatchSize: 10, BatchDelay: time.Millisecond},
		queue.Config{MaxRetries: 3, BaseDelay: time.Millisecond})

	rec := &statusRecorder{}
	unsubscribe := m.Subscribe(rec.record)
	defer unsubscribe()

	err := m.Initialize(context.Background(), "u1")
	assert.ErrorIs(t, err, localErr)
	assert.Equal(t, 1, rec.count(StatusError))

	// Ошибка не залочила менеджер: повторная попытка доходит до хранилища
	err = m.Initialize(context.Background(), "u1")
	assert.ErrorIs(t, err, localErr)
	assert.Len(t, local.InitCalls(), 2)
}

func TestCleanup_ThenReinitialize(t *testing.T) {
	mock := emptyRemote()
	m, _ := newTestManager(t, mock)
	ctx := context.Background()

	require.NoError(t, m.Initialize(ctx, "u1"))
	m.Cleanup(ctx)

	// Новая сессия после Cleanup: очередь пересоздается и доставляет
	require.NoError(t, m.Initialize(ctx, "u1"))

	agent := &models.Agent{ID: "a1", Name: "x", Version: 1, LastEditedAt: 100}
	require.NoError(t, m.Sync(ctx, agent, models.OpCreate))

	assert.Eventually(t, func() bool {
		return len(mock.PutEntityCalls()) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNotInitialized_Guard(t *testing.T) {
	m, _ := newTestManager(t, emptyRemote())
	ctx := context.Background()

	agent := &models.Agent{ID: "a1", Version: 1, LastEditedAt: 100}

	assert.ErrorIs(t, m.Sync(ctx, agent, models.OpCreate), ErrNotInitialized)
	assert.ErrorIs(t, m.PerformInitialSync(ctx), ErrNotInitialized)
	assert.ErrorIs(t, m.RetryFailed(ctx, "op"), ErrNotInitialized)

	_, err := m.FailedOperations(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSync_ValidationError(t *testing.T) {
	mock := emptyRemote()
	m, _ := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	// Пустой id отбрасывается синхронно, операция не встает в очередь
	err := m.Sync(ctx, &models.Agent{Version: 1, LastEditedAt: 100}, models.OpCreate)
	assert.Error(t, err)
	assert.Zero(t, m.PendingCount())
	assert.Empty(t, mock.PutEntityCalls())
}

func TestSync_OptimisticWriteAndDelivery(t *testing.T) {
	mock := emptyRemote()
	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	conv := &models.Conversation{
		ID:           "c1",
		Title:        "hello",
		Messages:     []models.Message{{Role: "user", Content: "hi", CreatedAt: 100}},
		CreatedAt:    100,
		LastEditedAt: 200,
		Version:      1,
	}
	require.NoError(t, m.Sync(ctx, conv, models.OpCreate))

	// Локальная запись синхронная - видна сразу
	var got models.Conversation
	require.NoError(t, local.Get(ctx, storage.PartitionConversations, "c1", &got))
	assert.Equal(t, "hello", got.Title)

	// Доставка на сервер асинхронная через очередь
	assert.Eventually(t, func() bool {
		return len(mock.PutEntityCalls()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	call := mock.PutEntityCalls()[0]
	assert.Equal(t, models.KindConversation, call.Kind)
	assert.Equal(t, "c1", call.Req.ID)
	assert.Equal(t, int64(1), call.Req.Version)
}

func TestSync_Delete(t *testing.T) {
	mock := emptyRemote()
	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	agent := &models.Agent{ID: "a1", Name: "x", Version: 1, LastEditedAt: 100}
	require.NoError(t, m.Sync(ctx, agent, models.OpCreate))

	agent.Touch()
	require.NoError(t, m.Sync(ctx, agent, models.OpDelete))

	// Локальная копия удалена сразу
	var gone models.Agent
	err := local.Get(ctx, storage.PartitionAgents, "a1", &gone)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	assert.Eventually(t, func() bool {
		return len(mock.DeleteEntityCalls()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, "a1", mock.DeleteEntityCalls()[0].ID)
}

func TestInitialSync_RemoteWinsOnHigherVersion(t *testing.T) {
	// Буквальный сценарий: local {c1, v3, ts1000}, remote {c1, v5, ts900}.
	// Побеждает удаленная копия независимо от timestamp.
	remoteConv := &models.Conversation{ID: "c1", Title: "remote", Version: 5, LastEditedAt: 900}

	mock := emptyRemote()
	mock.FetchAllMetadataFunc = func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
		if kind != models.KindConversation {
			return &api.MetadataPage{}, nil
		}
		return &api.MetadataPage{
			Items: []api.EntityMetadata{{ID: "c1", Version: 5, LastEditedAt: 900}},
		}, nil
	}
	mock.FetchEntityFunc = func(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
		return &api.EntityResponse{
			ID:           "c1",
			Version:      5,
			LastEditedAt: 900,
			Body:         entityBody(t, remoteConv),
		}, nil
	}

	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	localConv := &models.Conversation{ID: "c1", Title: "local", Version: 3, LastEditedAt: 1000}
	require.NoError(t, local.Set(ctx, storage.PartitionConversations, "c1", localConv, 0))

	require.NoError(t, m.PerformInitialSync(ctx))

	var got models.Conversation
	require.NoError(t, local.Get(ctx, storage.PartitionConversations, "c1", &got))
	assert.Equal(t, "remote", got.Title)
	assert.Equal(t, int64(5), got.Version)

	// Удаленная копия победила - ничего не пушим
	assert.Zero(t, m.PendingCount())
	assert.Empty(t, mock.PutEntityCalls())
}

func TestInitialSync_TimestampTieBreak_LocalWinsAndPushes(t *testing.T) {
	// Буквальный сценарий: local {a1, v4, ts2000}, remote {a1, v4, ts1500}.
	// При равных версиях побеждает поздний lastEditedAt и локальная копия
	// досылается на сервер операцией update.
	remoteAgent := &models.Agent{ID: "a1", Name: "remote", Version: 4, LastEditedAt: 1500}

	mock := emptyRemote()
	mock.FetchAllMetadataFunc = func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
		if kind != models.KindAgent {
			return &api.MetadataPage{}, nil
		}
		return &api.MetadataPage{
			Items: []api.EntityMetadata{{ID: "a1", Version: 4, LastEditedAt: 1500}},
		}, nil
	}
	mock.FetchEntityFunc = func(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
		return &api.EntityResponse{
			ID:           "a1",
			Version:      4,
			LastEditedAt: 1500,
			Body:         entityBody(t, remoteAgent),
		}, nil
	}

	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	localAgent := &models.Agent{ID: "a1", Name: "local", Version: 4, LastEditedAt: 2000}
	require.NoError(t, local.Set(ctx, storage.PartitionAgents, "a1", localAgent, 0))

	require.NoError(t, m.PerformInitialSync(ctx))

	var got models.Agent
	require.NoError(t, local.Get(ctx, storage.PartitionAgents, "a1", &got))
	assert.Equal(t, "local", got.Name)

	// Локальный победитель досылается на сервер
	assert.Eventually(t, func() bool {
		return len(mock.PutEntityCalls()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	call := mock.PutEntityCalls()[0]
	assert.Equal(t, "a1", call.Req.ID)
	assert.Equal(t, int64(4), call.Req.Version)
	assert.Equal(t, int64(2000), call.Req.LastEditedAt)
}

func TestInitialSync_EqualVersionSkipsFetch(t *testing.T) {
	mock := emptyRemote()
	mock.FetchAllMetadataFunc = func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
		if kind != models.KindConversation {
			return &api.MetadataPage{}, nil
		}
		return &api.MetadataPage{
			Items: []api.EntityMetadata{{ID: "c1", Version: 2, LastEditedAt: 100}},
		}, nil
	}

	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	localConv := &models.Conversation{ID: "c1", Title: "local", Version: 2, LastEditedAt: 100}
	require.NoError(t, local.Set(ctx, storage.PartitionConversations, "c1", localConv, 0))

	require.NoError(t, m.PerformInitialSync(ctx))

	// Совпавшая версия - тело не запрашивалось
	assert.Empty(t, mock.FetchEntityCalls())
}

func TestInitialSync_BatchProgress(t *testing.T) {
	// 25 локальных диалогов, все требуют дозагрузки (версии разошлись),
	// батч 10: минимум 3 batch_sync_progress до initial_sync_success
	const total = 25

	items := make([]api.EntityMetadata, 0, total)
	bodies := make(map[string]json.RawMessage, total)
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("c%02d", i)
		items = append(items, api.EntityMetadata{ID: id, Version: 2, LastEditedAt: 200})
		bodies[id] = entityBody(t, &models.Conversation{
			ID: id, Title: "remote " + id, Version: 2, LastEditedAt: 200,
		})
	}

	mock := emptyRemote()
	mock.FetchAllMetadataFunc = func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
		if kind != models.KindConversation {
			return &api.MetadataPage{}, nil
		}
		return &api.MetadataPage{Items: items}, nil
	}
	mock.FetchEntityFunc = func(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
		body, ok := bodies[id]
		if !ok {
			return nil, remote.ErrEntityNotFound
		}
		return &api.EntityResponse{ID: id, Version: 2, LastEditedAt: 200, Body: body}, nil
	}

	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	for i := 0; i < total; i++ {
		id := fmt.Sprintf("c%02d", i)
		conv := &models.Conversation{ID: id, Title: "stale", Version: 1, LastEditedAt: 100}
		require.NoError(t, local.Set(ctx, storage.PartitionConversations, id, conv, 0))
	}

	rec := &statusRecorder{}
	unsubscribe := m.Subscribe(rec.record)
	defer unsubscribe()

	require.NoError(t, m.PerformInitialSync(ctx))

	assert.GreaterOrEqual(t, rec.count(StatusBatchSyncProgress), 3)
	assert.Equal(t, 1, rec.count(StatusInitialSyncSuccess))

	// Прогресс приходит до финального статуса
	all := rec.all()
	assert.Equal(t, StatusInitialSyncSuccess, all[len(all)-1])

	// Все тела дозагружены и персистированы
	values, err := local.GetAll(ctx, storage.PartitionConversations)
	require.NoError(t, err)
	assert.Len(t, values, total)

	var got models.Conversation
	require.NoError(t, local.Get(ctx, storage.PartitionConversations, "c13", &got))
	assert.Equal(t, int64(2), got.Version)
}

func TestInitialSync_LocalOnlyEntitiesArePushed(t *testing.T) {
	mock := emptyRemote()
	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	conv := &models.Conversation{ID: "c1", Title: "mine", Version: 1, LastEditedAt: 100}
	agent := &models.Agent{ID: "a1", Name: "mine", Version: 1, LastEditedAt: 100}
	require.NoError(t, local.Set(ctx, storage.PartitionConversations, "c1", conv, 0))
	require.NoError(t, local.Set(ctx, storage.PartitionAgents, "a1", agent, 0))

	require.NoError(t, m.PerformInitialSync(ctx))

	// Чисто локальные сущности обоих видов досылаются на сервер
	assert.Eventually(t, func() bool {
		return len(mock.PutEntityCalls()) == 2
	}, 2*time.Second, 5*time.Millisecond)

	pushed := map[string]bool{}
	for _, call := range mock.PutEntityCalls() {
		pushed[call.Req.ID] = true
	}
	assert.True(t, pushed["c1"])
	assert.True(t, pushed["a1"])
}

func TestInitialSync_RemoteOnlyEntitiesArePersisted(t *testing.T) {
	remoteAgent := &models.Agent{ID: "a9", Name: "server-side", Version: 1, LastEditedAt: 50}

	mock := emptyRemote()
	mock.FetchAllMetadataFunc = func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
		if kind != models.KindAgent {
			return &api.MetadataPage{}, nil
		}
		return &api.MetadataPage{
			Items: []api.EntityMetadata{{ID: "a9", Version: 1, LastEditedAt: 50}},
		}, nil
	}
	mock.FetchEntityFunc = func(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
		return &api.EntityResponse{ID: "a9", Version: 1, LastEditedAt: 50, Body: entityBody(t, remoteAgent)}, nil
	}

	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	require.NoError(t, m.PerformInitialSync(ctx))

	var got models.Agent
	require.NoError(t, local.Get(ctx, storage.PartitionAgents, "a9", &got))
	assert.Equal(t, "server-side", got.Name)
}

func TestInitialSync_BatchFailureDoesNotAbortRemaining(t *testing.T) {
	// Часть тел не выгружается: ошибки логируются, остальные сущности
	// батча и последующие батчи обрабатываются
	const total = 15

	items := make([]api.EntityMetadata, 0, total)
	for i := 0; i < total; i++ {
		items = append(items, api.EntityMetadata{
			ID: fmt.Sprintf("c%02d", i), Version: 2, LastEditedAt: 200,
		})
	}

	mock := emptyRemote()
	mock.FetchAllMetadataFunc = func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
		if kind != models.KindConversation {
			return &api.MetadataPage{}, nil
		}
		return &api.MetadataPage{Items: items}, nil
	}
	mock.FetchEntityFunc = func(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
		if id < "c10" {
			return nil, fmt.Errorf("throttled")
		}
		conv := &models.Conversation{ID: id, Title: "ok", Version: 2, LastEditedAt: 200}
		return &api.EntityResponse{ID: id, Version: 2, LastEditedAt: 200, Body: entityBody(t, conv)}, nil
	}

	m, local := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	require.NoError(t, m.PerformInitialSync(ctx))

	// Второй батч персистирован несмотря на отказ первого
	var got models.Conversation
	require.NoError(t, local.Get(ctx, storage.PartitionConversations, "c12", &got))
	assert.Equal(t, "ok", got.Title)

	// Сущности упавшего батча остаются в последнем известном состоянии
	err := local.Get(ctx, storage.PartitionConversations, "c01", &got)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	m, _ := newTestManager(t, emptyRemote())
	ctx := context.Background()

	rec := &statusRecorder{}
	unsubscribe := m.Subscribe(rec.record)

	require.NoError(t, m.Initialize(ctx, "u1"))
	assert.Equal(t, []Status{StatusInitializing, StatusIdle}, rec.all())

	unsubscribe()

	agent := &models.Agent{ID: "a1", Name: "x", Version: 1, LastEditedAt: 100}
	require.NoError(t, m.Sync(ctx, agent, models.OpCreate))

	// После отписки новых статусов не приходит
	assert.Equal(t, []Status{StatusInitializing, StatusIdle}, rec.all())
}

func TestFailedOperations_SurfacedAndRetryable(t *testing.T) {
	mock := emptyRemote()

	var mu sync.Mutex
	failing := true
	mock.PutEntityFunc = func(ctx context.Context, kind string, req *api.PutEntityRequest) error {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			return fmt.Errorf("remote unavailable")
		}
		return nil
	}

	m, _ := newTestManager(t, mock)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "u1"))

	agent := &models.Agent{ID: "a1", Name: "x", Version: 1, LastEditedAt: 100}
	require.NoError(t, m.Sync(ctx, agent, models.OpCreate))

	// Исчерпание повторов демотирует операцию в failed set
	var failed []*models.SyncOperation
	assert.Eventually(t, func() bool {
		var err error
		failed, err = m.FailedOperations(ctx)
		return err == nil && len(failed) == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, "a1", failed[0].EntityID)
	assert.Zero(t, m.PendingCount())

	// Ручной повтор после восстановления
	mu.Lock()
	failing = false
	mu.Unlock()

	require.NoError(t, m.RetryFailed(ctx, failed[0].ID))

	assert.Eventually(t, func() bool {
		ops, err := m.FailedOperations(ctx)
		return err == nil && len(ops) == 0 && m.PendingCount() == 0
	}, 2*time.Second, 5*time.Millisecond)
}
