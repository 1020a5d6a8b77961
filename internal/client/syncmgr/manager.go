package syncmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/chatsync/internal/client/queue"
	"github.com/iudanet/chatsync/internal/client/remote"
	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/models"
	"github.com/iudanet/chatsync/pkg/api"
)

// ErrNotInitialized indicates that Initialize was not called or failed
var ErrNotInitialized = errors.New("sync manager is not initialized")

// metadataPageLimit размер страницы при листинге метаданных с сервера
const metadataPageLimit = 100

// Config contains initial sync tuning parameters
type Config struct {
	BatchSize  int           // размер батча дозагрузки тел при начальной синхронизации
	BatchDelay time.Duration // пауза между батчами, чтобы не забивать соединение
}

// DefaultConfig returns production sync defaults
func DefaultConfig() Config {
	return Config{
		BatchSize:  10,
		BatchDelay: 100 * time.Millisecond,
	}
}

// Manager orchestrates offline synchronization: initialization, the initial
// bulk reconciliation, per-mutation sync, conflict resolution and status
// broadcast to subscribers.
//
// Жизненный цикл: New → Initialize → (PerformInitialSync | Sync)* → Cleanup.
// Все методы кроме Initialize требуют успешной инициализации и возвращают
// ErrNotInitialized до неё. Cleanup завершает сессию; повторный Initialize
// начинает новую со свежей очередью.
type Manager struct {
	local    storage.LocalStore
	remote   remote.Store
	logger   *slog.Logger
	cfg      Config
	queueCfg queue.Config

	mu           sync.Mutex
	queue        *queue.Queue
	userID       string
	initialized  bool
	initializing bool
	status       Status
	subscribers  map[int]func(Status)
	nextSubID    int
}

// New creates a sync manager. Адаптер удаленного хранилища инжектируется
// сконструированным: один настроенный клиент на процесс, тесты подставляют
// двойника.
func New(local storage.LocalStore, remoteStore remote.Store, logger *slog.Logger, cfg Config, queueCfg queue.Config) *Manager {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = DefaultConfig().BatchDelay
	}

	m := &Manager{
		local:       local,
		remote:      remoteStore,
		logger:      logger,
		cfg:         cfg,
		queueCfg:    queueCfg,
		status:      StatusIdle,
		subscribers: make(map[int]func(Status)),
	}
	m.queue = queue.New(local, m.processOperation, logger, queueCfg)

	return m
}

// Initialize prepares the engine for the given user: local store init,
// then restore of the persisted operation queue.
// Idempotent guard: повторный или конкурентный вызов логирует
// предупреждение и no-op, первая сессия остается рабочей.
// После Cleanup допускается повторная инициализация: закрытая очередь
// заменяется свежей.
func (m *Manager) Initialize(ctx context.Context, userID string) error {
	m.mu.Lock()
	if m.initialized || m.initializing {
		m.mu.Unlock()
		m.logger.Warn("Sync manager already initialized", "user_id", m.userID)
		return nil
	}
	m.initializing = true
	if m.queue.Closed() {
		m.queue = queue.New(m.local, m.processOperation, m.logger, m.queueCfg)
	}
	q := m.queue
	m.mu.Unlock()

	m.broadcast(StatusInitializing)

	if err := m.local.Init(ctx); err != nil {
		m.failInit()
		return fmt.Errorf("failed to initialize local store: %w", err)
	}

	if err := q.LoadPersisted(ctx); err != nil {
		m.failInit()
		return fmt.Errorf("failed to restore operation queue: %w", err)
	}

	m.mu.Lock()
	m.userID = userID
	m.initialized = true
	m.initializing = false
	m.mu.Unlock()

	m.logger.Info("Sync manager initialized", "user_id", userID)
	m.broadcast(StatusIdle)
	return nil
}

// failInit откатывает флаг инициализации и анонсирует ошибку
func (m *Manager) failInit() {
	m.mu.Lock()
	m.initializing = false
	m.mu.Unlock()
	m.broadcast(StatusError)
}

// Sync propagates a single local mutation: optimistic local write,
// then a durable operation handed to the queue.
// Validation errors are returned synchronously and nothing is enqueued.
func (m *Manager) Sync(ctx context.Context, entity models.Syncable, opType models.OperationType) error {
	if err := m.requireInit(); err != nil {
		return err
	}

	kind, err := models.KindOf(entity)
	if err != nil {
		return err
	}

	// Для delete достаточно id; create/update проходят полную валидацию
	if opType == models.OpDelete {
		if entity.GetID() == "" {
			return fmt.Errorf("entity id is empty")
		}
	} else if err := models.ValidateEntity(entity); err != nil {
		return fmt.Errorf("invalid entity: %w", err)
	}

	m.broadcast(StatusSyncing)

	partition := partitionForKind(kind)

	// Оптимистичная локальная запись: UI видит результат сразу,
	// доставка на сервер идет асинхронно через очередь
	if opType == models.OpDelete {
		err = m.local.Delete(ctx, partition, entity.GetID())
	} else {
		err = m.local.Set(ctx, partition, entity.GetID(), entity, 0)
	}
	if err != nil {
		m.broadcast(StatusError)
		return fmt.Errorf("failed to apply local write: %w", err)
	}

	var op *models.SyncOperation
	if opType == models.OpDelete {
		op, err = models.NewDeleteOperation(kind, entity.GetID())
	} else {
		op, err = models.NewOperation(opType, kind, entity)
	}
	if err != nil {
		m.broadcast(StatusError)
		return err
	}

	if err := m.activeQueue().Add(ctx, op); err != nil {
		m.broadcast(StatusError)
		return fmt.Errorf("failed to enqueue operation: %w", err)
	}

	m.broadcast(StatusSuccess)
	return nil
}

// PerformInitialSync reconciles local state against the remote store.
// Легкие виды (агенты) мержатся целиком; тяжелые (диалоги) сначала
// сравниваются по метаданным, разошедшиеся тела догружаются батчами
// с прогрессом для UI.
func (m *Manager) PerformInitialSync(ctx context.Context) error {
	if err := m.requireInit(); err != nil {
		return err
	}

	m.broadcast(StatusSyncing)

	if err := m.syncAgents(ctx); err != nil {
		m.broadcast(StatusError)
		return fmt.Errorf("agents sync failed: %w", err)
	}

	toFetch, err := m.diffConversations(ctx)
	if err != nil {
		m.broadcast(StatusError)
		return fmt.Errorf("conversations diff failed: %w", err)
	}

	// Быстрая фаза закончена: агенты смержены, совпадающие диалоги
	// оставлены как есть. UI уже может рисовать частичные данные.
	m.broadcast(StatusPartialSyncSuccess)

	m.fetchConversationBatches(ctx, toFetch)

	m.logger.Info("Initial sync completed", "fetched_conversations", len(toFetch))
	m.broadcast(StatusInitialSyncSuccess)
	return nil
}

// Subscribe registers a status callback. Возвращает функцию отписки.
func (m *Manager) Subscribe(fn func(Status)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Status returns the last broadcast status
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// PendingCount returns the operation queue depth
func (m *Manager) PendingCount() int {
	return m.activeQueue().PendingCount()
}

// FailedOperations returns operations that exhausted their retry budget
func (m *Manager) FailedOperations(ctx context.Context) ([]*models.SyncOperation, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	return m.activeQueue().FailedOperations(ctx)
}

// RetryFailed moves a failed operation back to the live queue
func (m *Manager) RetryFailed(ctx context.Context, id string) error {
	if err := m.requireInit(); err != nil {
		return err
	}
	return m.activeQueue().RetryFailed(ctx, id)
}

// Cleanup stops the queue drain and clears in-memory session state.
// Очередь уже persisted (persist-on-every-mutation), синхронизированные
// сущности не трогаются.
func (m *Manager) Cleanup(ctx context.Context) {
	m.activeQueue().Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = make(map[int]func(Status))
	m.initialized = false
	m.userID = ""

	m.logger.Info("Sync manager cleaned up")
}

// syncAgents выполняет полный merge легкого вида: все удаленные агенты
// выгружаются целиком и сверяются с локальными по правилу LWW
func (m *Manager) syncAgents(ctx context.Context) error {
	remoteMeta, err := m.fetchAllMetadata(ctx, models.KindAgent)
	if err != nil {
		return err
	}

	local, err := m.loadLocal(ctx, models.KindAgent)
	if err != nil {
		return err
	}

	merged := 0
	pushed := 0

	for id := range remoteMeta {
		resp, err := m.remote.FetchEntity(ctx, models.KindAgent, id)
		if err != nil {
			// Отдельный агент не фатален для всей синхронизации
			m.logger.Warn("Failed to fetch remote agent", "entity_id", id, "error", err)
			continue
		}

		remoteEntity, err := models.DecodeEntity(models.KindAgent, resp.Body)
		if err != nil {
			m.logger.Warn("Failed to decode remote agent", "entity_id", id, "error", err)
			continue
		}

		localEntity, exists := local[id]
		if !exists {
			// Есть только на сервере - сохраняем локально
			if err := m.persistEntity(ctx, models.KindAgent, remoteEntity); err != nil {
				return err
			}
			merged++
			continue
		}

		winner, pushNeeded := m.resolveConflict(localEntity, remoteEntity)
		if err := m.persistEntity(ctx, models.KindAgent, winner); err != nil {
			return err
		}
		if pushNeeded {
			if err := m.enqueuePush(ctx, models.KindAgent, winner); err != nil {
				return err
			}
			pushed++
		}
		merged++
	}

	// Чисто локальные агенты ресинкаются на сервер
	for id, localEntity := range local {
		if _, ok := remoteMeta[id]; ok {
			continue
		}
		if err := m.enqueuePush(ctx, models.KindAgent, localEntity); err != nil {
			return err
		}
		pushed++
	}

	m.logger.Info("Agents reconciled",
		"remote", len(remoteMeta),
		"local", len(local),
		"merged", merged,
		"pushed", pushed)
	return nil
}

// diffConversations сравнивает локальные диалоги с удаленными метаданными
// и возвращает ids, чьи тела нужно догрузить. Совпадающая версия означает
// что локальная копия актуальна и сетевой запрос не нужен.
func (m *Manager) diffConversations(ctx context.Context) ([]string, error) {
	remoteMeta, err := m.fetchAllMetadata(ctx, models.KindConversation)
	if err != nil {
		return nil, err
	}

	local, err := m.loadLocal(ctx, models.KindConversation)
	if err != nil {
		return nil, err
	}

	var toFetch []string
	skipped := 0

	for id, meta := range remoteMeta {
		localEntity, exists := local[id]
		if !exists {
			// Есть только на сервере - тело нужно догрузить
			toFetch = append(toFetch, id)
			continue
		}
		if localEntity.GetVersion() == meta.Version {
			// Версии совпали - оставляем локальную копию без запроса
			skipped++
			continue
		}
		toFetch = append(toFetch, id)
	}

	// Чисто локальные диалоги ресинкаются на сервер
	for id, localEntity := range local {
		if _, ok := remoteMeta[id]; ok {
			continue
		}
		if err := m.enqueuePush(ctx, models.KindConversation, localEntity); err != nil {
			return nil, err
		}
	}

	m.logger.Info("Conversations diffed",
		"remote", len(remoteMeta),
		"local", len(local),
		"to_fetch", len(toFetch),
		"up_to_date", skipped)
	return toFetch, nil
}

// fetchConversationBatches догружает тела диалогов батчами фиксированного
// размера. Каждый батч персистится сразу и анонсируется подписчикам, чтобы
// UI мог отрисовать частичный результат до конца всей синхронизации.
// Ошибка батча логируется и не прерывает следующие батчи.
func (m *Manager) fetchConversationBatches(ctx context.Context, ids []string) {
	for start := 0; start < len(ids); start += m.cfg.BatchSize {
		end := start + m.cfg.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		if err := m.fetchBatch(ctx, batch); err != nil {
			m.logger.Warn("Conversation batch failed",
				"from", start,
				"size", len(batch),
				"error", err)
		}

		m.broadcast(StatusBatchSyncProgress)

		// Небольшая пауза между батчами, чтобы не насыщать соединение
		if end < len(ids) && m.cfg.BatchDelay > 0 {
			time.Sleep(m.cfg.BatchDelay)
		}
	}
}

// fetchBatch выгружает тела одного батча конкурентно, разрешает конфликты
// против локальных копий и персистит победителей. Ошибки отдельных
// сущностей не фатальны: они остаются в последнем известном локальном
// состоянии до следующего цикла.
func (m *Manager) fetchBatch(ctx context.Context, ids []string) error {
	type result struct {
		id     string
		entity models.Syncable
		err    error
	}

	results := make([]result, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(n int, entityID string) {
			defer wg.Done()

			resp, err := m.remote.FetchEntity(ctx, models.KindConversation, entityID)
			if err != nil {
				results[n] = result{id: entityID, err: err}
				return
			}
			entity, err := models.DecodeEntity(models.KindConversation, resp.Body)
			results[n] = result{id: entityID, entity: entity, err: err}
		}(i, id)
	}
	wg.Wait()

	var firstErr error
	for _, res := range results {
		if res.err != nil {
			m.logger.Warn("Failed to fetch conversation",
				"entity_id", res.id,
				"error", res.err)
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}

		var localEntity models.Syncable
		var conv models.Conversation
		err := m.local.Get(ctx, storage.PartitionConversations, res.id, &conv)
		switch {
		case err == nil:
			localEntity = &conv
		case errors.Is(err, storage.ErrItemNotFound):
			localEntity = nil
		default:
			return fmt.Errorf("failed to read local conversation: %w", err)
		}

		if localEntity == nil {
			if err := m.persistEntity(ctx, models.KindConversation, res.entity); err != nil {
				return err
			}
			continue
		}

		winner, pushNeeded := m.resolveConflict(localEntity, res.entity)
		if err := m.persistEntity(ctx, models.KindConversation, winner); err != nil {
			return err
		}
		if pushNeeded {
			if err := m.enqueuePush(ctx, models.KindConversation, winner); err != nil {
				return err
			}
		}
	}

	return firstErr
}

// resolveConflict разрешает расхождение локальной и удаленной копий по
// правилу last-writer-wins: большая версия, при равенстве - поздний
// lastEditedAt. Возвращает победителя и признак того, что локального
// победителя нужно дослать на сервер.
//
// Известное ограничение, унаследованное от исходной семантики: победа
// удаленной копии не сверяется с уже стоящими в очереди локальными
// операциями той же сущности - очередь дошлет устаревшую копию, и
// страховкой служит сравнение версий в следующем цикле синхронизации.
func (m *Manager) resolveConflict(local, remoteEntity models.Syncable) (models.Syncable, bool) {
	if models.SameRevision(local, remoteEntity) {
		return local, false
	}

	if models.LocalWins(local, remoteEntity) {
		m.logger.Debug("Conflict resolved (local wins)",
			"entity_id", local.GetID(),
			"local_version", local.GetVersion(),
			"remote_version", remoteEntity.GetVersion())
		return local, true
	}

	m.logger.Debug("Conflict resolved (remote wins)",
		"entity_id", local.GetID(),
		"local_version", local.GetVersion(),
		"remote_version", remoteEntity.GetVersion())
	return remoteEntity, false
}

// processOperation доставляет одну операцию очереди на сервер.
// Вызывается горутиной-дренажем очереди строго по одной операции.
func (m *Manager) processOperation(ctx context.Context, op *models.SyncOperation) error {
	switch op.Type {
	case models.OpCreate, models.OpUpdate:
		entity, err := models.DecodeEntity(op.Kind, op.Data)
		if err != nil {
			return fmt.Errorf("failed to decode operation payload: %w", err)
		}
		return m.remote.PutEntity(ctx, op.Kind, &api.PutEntityRequest{
			ID:           entity.GetID(),
			Version:      entity.GetVersion(),
			LastEditedAt: entity.GetLastEditedAt(),
			Body:         op.Data,
		})
	case models.OpDelete:
		return m.remote.DeleteEntity(ctx, op.Kind, op.EntityID)
	default:
		return fmt.Errorf("unknown operation type: %q", op.Type)
	}
}

// fetchAllMetadata выгружает все страницы метаданных одного вида
func (m *Manager) fetchAllMetadata(ctx context.Context, kind string) (map[string]api.EntityMetadata, error) {
	meta := make(map[string]api.EntityMetadata)

	pageToken := ""
	for {
		page, err := m.remote.FetchAllMetadata(ctx, kind, pageToken, metadataPageLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s metadata: %w", kind, err)
		}
		for _, item := range page.Items {
			meta[item.ID] = item
		}
		if page.NextPageToken == "" {
			return meta, nil
		}
		pageToken = page.NextPageToken
	}
}

// loadLocal читает и декодирует все локальные сущности одного вида
func (m *Manager) loadLocal(ctx context.Context, kind string) (map[string]models.Syncable, error) {
	values, err := m.local.GetAll(ctx, partitionForKind(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to load local %s entities: %w", kind, err)
	}

	entities := make(map[string]models.Syncable, len(values))
	for _, raw := range values {
		entity, err := models.DecodeEntity(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode local %s entity: %w", kind, err)
		}
		entities[entity.GetID()] = entity
	}
	return entities, nil
}

// persistEntity сохраняет сущность в её партицию
func (m *Manager) persistEntity(ctx context.Context, kind string, entity models.Syncable) error {
	if err := m.local.Set(ctx, partitionForKind(kind), entity.GetID(), entity, 0); err != nil {
		return fmt.Errorf("failed to persist %s entity: %w", kind, err)
	}
	return nil
}

// enqueuePush ставит в очередь операцию обновления для локального победителя
func (m *Manager) enqueuePush(ctx context.Context, kind string, entity models.Syncable) error {
	op, err := models.NewOperation(models.OpUpdate, kind, entity)
	if err != nil {
		return err
	}
	if err := m.activeQueue().Add(ctx, op); err != nil {
		return fmt.Errorf("failed to enqueue push: %w", err)
	}
	return nil
}

// activeQueue возвращает текущую очередь. Указатель меняется при
// повторной инициализации, поэтому читается под мьютексом.
func (m *Manager) activeQueue() *queue.Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue
}

// requireInit возвращает явную ошибку до успешной инициализации
func (m *Manager) requireInit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	return nil
}

// broadcast рассылает переход статуса всем подписчикам.
// Колбэки вызываются вне мьютекса: подписчик может отписаться из колбэка.
func (m *Manager) broadcast(status Status) {
	m.mu.Lock()
	m.status = status
	callbacks := make([]func(Status), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		callbacks = append(callbacks, fn)
	}
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(status)
	}
}

// partitionForKind отображает вид сущности на партицию локального хранилища
func partitionForKind(kind string) string {
	switch kind {
	case models.KindConversation:
		return storage.PartitionConversations
	case models.KindAgent:
		return storage.PartitionAgents
	default:
		// Незарегистрированный вид отсекается валидацией раньше
		return kind
	}
}
