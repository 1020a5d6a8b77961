package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/models"
)

// ErrOperationNotFound indicates that operation is absent from the failed set
var ErrOperationNotFound = errors.New("operation not found")

// queueKey единственный ключ в партиции syncQueue: очередь персистится
// целиком после каждой мутации
const queueKey = "queue"

// Processor применяет одну операцию на удаленной стороне.
// Ошибка означает неудачную попытку доставки; очередь повторит вызов
// согласно политике повторов.
type Processor func(ctx context.Context, op *models.SyncOperation) error

// Config contains queue tuning parameters.
// Значения по умолчанию взяты из DefaultConfig; это настройки, а не
// жесткие требования.
type Config struct {
	MaxRetries int           // максимум попыток доставки одной операции
	BaseDelay  time.Duration // база экспоненциального backoff
}

// DefaultConfig returns production queue defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// Queue представляет durable FIFO очередь операций синхронизации.
// Доставка строго по одной (single-flight): операция N+1 не уходит
// на сервер, пока попытки операции N не завершились успехом или
// окончательным отказом. Очередь персистится после каждой мутации,
// поэтому незавершенные операции переживают перезапуск.
type Queue struct {
	store     storage.LocalStore
	processor Processor
	logger    *slog.Logger
	cfg       Config

	mu         sync.Mutex
	items      []*models.SyncOperation
	processing bool
	closed     bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a queue on top of the local store.
// processor вызывается из фоновой горутины-дренажа.
func New(store storage.LocalStore, processor Processor, logger *slog.Logger, cfg Config) *Queue {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}

	return &Queue{
		store:     store,
		processor: processor,
		logger:    logger,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
	}
}

// Add appends an operation, persists the queue and starts draining if idle
func (q *Queue) Add(ctx context.Context, op *models.SyncOperation) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	q.items = append(q.items, op)
	if err := q.persistLocked(ctx); err != nil {
		// Откатываем append: операция не принята, если её нельзя сохранить
		q.items = q.items[:len(q.items)-1]
		return fmt.Errorf("failed to persist queue: %w", err)
	}

	q.logger.Debug("Operation enqueued",
		"op_id", op.ID,
		"type", op.Type,
		"kind", op.Kind,
		"entity_id", op.EntityID,
		"depth", len(q.items))

	q.startDrainLocked()
	return nil
}

// LoadPersisted restores a queue left over from a prior session and
// resumes processing. Вызывается один раз при старте.
func (q *Queue) LoadPersisted(ctx context.Context) error {
	var items []*models.SyncOperation
	err := q.store.Get(ctx, storage.PartitionSyncQueue, queueKey, &items)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load persisted queue: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = items
	if len(items) > 0 {
		q.logger.Info("Restored persisted queue", "depth", len(items))
		q.startDrainLocked()
	}
	return nil
}

// PendingCount returns the current queue depth
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// FailedOperations returns operations that exhausted their retry budget
func (q *Queue) FailedOperations(ctx context.Context) ([]*models.SyncOperation, error) {
	values, err := q.store.GetAll(ctx, storage.PartitionFailedOps)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed operations: %w", err)
	}

	ops := make([]*models.SyncOperation, 0, len(values))
	for _, raw := range values {
		var op models.SyncOperation
		if err := json.Unmarshal(raw, &op); err != nil {
			return nil, fmt.Errorf("failed to unmarshal failed operation: %w", err)
		}
		ops = append(ops, &op)
	}
	return ops, nil
}

// RetryFailed moves a failed operation back to the live queue with
// RetryCount reset to zero
func (q *Queue) RetryFailed(ctx context.Context, id string) error {
	var op models.SyncOperation
	err := q.store.Get(ctx, storage.PartitionFailedOps, id, &op)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return fmt.Errorf("%w: %s", ErrOperationNotFound, id)
		}
		return fmt.Errorf("failed to get failed operation: %w", err)
	}

	if err := q.store.Delete(ctx, storage.PartitionFailedOps, id); err != nil {
		return fmt.Errorf("failed to remove operation from failed set: %w", err)
	}

	op.RetryCount = 0
	return q.Add(ctx, &op)
}

// Close stops the drain goroutine. Необработанные операции остаются
// persisted и будут восстановлены через LoadPersisted при следующем старте.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()
}

// Closed reports whether Close was called. Закрытая очередь операций
// не принимает; для новой сессии создается новая очередь.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// startDrainLocked запускает горутину-дренаж, если она не работает.
// Вызывается под q.mu.
func (q *Queue) startDrainLocked() {
	if q.processing || q.closed {
		return
	}
	q.processing = true
	q.wg.Add(1)
	go q.drain()
}

// drain обрабатывает очередь строго FIFO до опустошения.
// Единственная горутина, вызывающая processor.
func (q *Queue) drain() {
	defer q.wg.Done()

	// Дренаж переживает вызвавший Add запрос, поэтому работает
	// на собственном контексте
	ctx := context.Background()

	for {
		q.mu.Lock()
		if q.closed || len(q.items) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		head := q.items[0]
		q.mu.Unlock()

		err := q.processor(ctx, head)
		if err == nil {
			q.pop(ctx, head)
			continue
		}

		q.mu.Lock()
		head.RetryCount++
		retries := head.RetryCount
		if perr := q.persistLocked(ctx); perr != nil {
			q.logger.Warn("Failed to persist retry count", "op_id", head.ID, "error", perr)
		}
		q.mu.Unlock()

		q.logger.Warn("Operation delivery failed",
			"op_id", head.ID,
			"entity_id", head.EntityID,
			"retry_count", retries,
			"error", err)

		if retries >= q.cfg.MaxRetries {
			q.moveToFailed(ctx, head)
			continue
		}

		// Экспоненциальный backoff перед повтором той же головы:
		// BaseDelay * 2^retryCount
		delay := q.cfg.BaseDelay * time.Duration(1<<retries)
		select {
		case <-time.After(delay):
		case <-q.stopCh:
			q.mu.Lock()
			q.processing = false
			q.mu.Unlock()
			return
		}
	}
}

// pop удаляет подтвержденную голову и персистит укороченную очередь
func (q *Queue) pop(ctx context.Context, head *models.SyncOperation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) > 0 && q.items[0] == head {
		q.items = q.items[1:]
	}
	if err := q.persistLocked(ctx); err != nil {
		q.logger.Warn("Failed to persist queue after pop", "error", err)
	}
}

// moveToFailed переносит операцию с исчерпанным лимитом повторов
// в хранилище failed operations и убирает её из живой очереди
func (q *Queue) moveToFailed(ctx context.Context, op *models.SyncOperation) {
	if err := q.store.Set(ctx, storage.PartitionFailedOps, op.ID, op, 0); err != nil {
		q.logger.Error("Failed to record failed operation", "op_id", op.ID, "error", err)
	}

	q.logger.Warn("Operation moved to failed set",
		"op_id", op.ID,
		"entity_id", op.EntityID,
		"retry_count", op.RetryCount)

	q.pop(ctx, op)
}

// persistLocked сохраняет всю очередь в локальное хранилище.
// Вызывается под q.mu после каждой мутации очереди.
func (q *Queue) persistLocked(ctx context.Context) error {
	items := q.items
	if items == nil {
		items = []*models.SyncOperation{}
	}
	return q.store.Set(ctx, storage.PartitionSyncQueue, queueKey, items, 0)
}
