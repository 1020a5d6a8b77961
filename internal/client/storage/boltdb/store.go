package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/chatsync/internal/client/storage"
)

// recencyIndexed перечисляет партиции с индексом актуальности.
// Ключи индексного bucket упорядочены по lastEditedAt, поэтому запрос
// «последние диалоги» читает в байтовом порядке ключей без сортировки.
var recencyIndexed = map[string]bool{
	storage.PartitionConversations: true,
}

func recencyBucketName(partition string) []byte {
	return []byte(partition + "_byEditedAt")
}

// recencyKey собирает ключ индекса: big-endian lastEditedAt + id.
// Big-endian дает лексикографический порядок, совпадающий с числовым.
func recencyKey(editedAt int64, id []byte) []byte {
	key := make([]byte, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(editedAt))
	copy(key[8:], id)
	return key
}

// editedAtOf извлекает last_edited_at из тела значения.
// Записи без поля упорядочиваются по времени записи.
func editedAtOf(value json.RawMessage, fallback int64) int64 {
	var meta struct {
		LastEditedAt int64 `json:"last_edited_at"`
	}
	if err := json.Unmarshal(value, &meta); err != nil || meta.LastEditedAt == 0 {
		return fallback
	}
	return meta.LastEditedAt
}

func recencyBucket(tx *bbolt.Tx, partition string) (*bbolt.Bucket, error) {
	b := tx.Bucket(recencyBucketName(partition))
	if b == nil {
		return nil, fmt.Errorf("%w: no recency index for %q", storage.ErrUnknownPartition, partition)
	}
	return b, nil
}

// dropRecencyEntry удаляет индексную запись существующего item.
// Вызывается до перезаписи или удаления основной записи.
func dropRecencyEntry(tx *bbolt.Tx, partition string, b *bbolt.Bucket, key []byte) error {
	data := b.Get(key)
	if data == nil {
		return nil
	}

	var item storage.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("failed to unmarshal item %q: %w", string(key), err)
	}

	idx, err := recencyBucket(tx, partition)
	if err != nil {
		return err
	}
	if err := idx.Delete(recencyKey(editedAtOf(item.Value, item.Timestamp), key)); err != nil {
		return fmt.Errorf("failed to delete recency entry: %w", err)
	}
	return nil
}

// Set stores or updates an item in the partition.
// ttl == 0 означает запись без срока действия.
func (s *Storage) Set(ctx context.Context, partition, key string, value any, ttl time.Duration) error {
	if s.db == nil {
		return storage.ErrNotInitialized
	}

	// Сериализуем значение
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	now := time.Now().UnixMilli()
	item := storage.Item{
		ID:        key,
		Value:     raw,
		Timestamp: now,
	}
	if ttl > 0 {
		item.Expiry = now + ttl.Milliseconds()
	}

	data, err := json.Marshal(&item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, partition)
		if err != nil {
			return err
		}

		if recencyIndexed[partition] {
			// Старая индексная запись снимается до перезаписи значения
			if err := dropRecencyEntry(tx, partition, b, []byte(key)); err != nil {
				return err
			}
			idx, err := recencyBucket(tx, partition)
			if err != nil {
				return err
			}
			if err := idx.Put(recencyKey(editedAtOf(raw, now), []byte(key)), []byte(key)); err != nil {
				return fmt.Errorf("failed to update recency index: %w", err)
			}
		}

		if err := b.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to save item: %w", err)
		}
		return nil
	})
}

// Get retrieves an item value into out.
// Истекшая запись удаляется как побочный эффект и никогда не возвращается.
func (s *Storage) Get(ctx context.Context, partition, key string, out any) error {
	if s.db == nil {
		return storage.ErrNotInitialized
	}

	var item storage.Item
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, partition)
		if err != nil {
			return err
		}

		data := b.Get([]byte(key))
		if data == nil {
			return storage.ErrItemNotFound
		}

		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("failed to unmarshal item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Lazy expiry: удаляем истекшую запись и отвечаем как про отсутствующую
	if item.Expired(time.Now().UnixMilli()) {
		if err := s.Delete(ctx, partition, key); err != nil {
			return fmt.Errorf("failed to delete expired item: %w", err)
		}
		return storage.ErrItemNotFound
	}

	if out != nil {
		if err := json.Unmarshal(item.Value, out); err != nil {
			return fmt.Errorf("failed to unmarshal value: %w", err)
		}
	}

	return nil
}

// GetAll returns raw values of all non-expired items in the partition.
// Порядок не гарантируется. Истекшие записи, встреченные при сканировании,
// удаляются отдельной транзакцией после чтения.
func (s *Storage) GetAll(ctx context.Context, partition string) ([]json.RawMessage, error) {
	if s.db == nil {
		return nil, storage.ErrNotInitialized
	}

	now := time.Now().UnixMilli()

	var values []json.RawMessage
	var expiredKeys [][]byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, partition)
		if err != nil {
			return err
		}

		return b.ForEach(func(k, v []byte) error {
			var item storage.Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to unmarshal item %q: %w", string(k), err)
			}

			if item.Expired(now) {
				keyCopy := make([]byte, len(k))
				copy(keyCopy, k)
				expiredKeys = append(expiredKeys, keyCopy)
				return nil
			}

			values = append(values, item.Value)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Удаляем истекшие записи, найденные при сканировании
	if err := s.deleteExpired(partition, expiredKeys); err != nil {
		return nil, err
	}

	return values, nil
}

// GetAllByRecency returns raw values of all non-expired items in a
// recency-indexed partition, ordered by lastEditedAt, newest first.
func (s *Storage) GetAllByRecency(ctx context.Context, partition string) ([]json.RawMessage, error) {
	if s.db == nil {
		return nil, storage.ErrNotInitialized
	}
	if !recencyIndexed[partition] {
		return nil, fmt.Errorf("%w: no recency index for %q", storage.ErrUnknownPartition, partition)
	}

	now := time.Now().UnixMilli()

	var values []json.RawMessage
	var expiredKeys [][]byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, partition)
		if err != nil {
			return err
		}
		idx, err := recencyBucket(tx, partition)
		if err != nil {
			return err
		}

		// Индекс упорядочен по возрастанию lastEditedAt: курсор идет с хвоста
		c := idx.Cursor()
		for k, id := c.Last(); k != nil; k, id = c.Prev() {
			data := b.Get(id)
			if data == nil {
				continue
			}

			var item storage.Item
			if err := json.Unmarshal(data, &item); err != nil {
				return fmt.Errorf("failed to unmarshal item %q: %w", string(id), err)
			}

			if item.Expired(now) {
				idCopy := make([]byte, len(id))
				copy(idCopy, id)
				expiredKeys = append(expiredKeys, idCopy)
				continue
			}

			values = append(values, item.Value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.deleteExpired(partition, expiredKeys); err != nil {
		return nil, err
	}

	return values, nil
}

// deleteExpired удаляет истекшие записи вместе с их индексными записями
func (s *Storage) deleteExpired(partition string, keys [][]byte) error {
	if len(keys) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, partition)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if recencyIndexed[partition] {
				if err := dropRecencyEntry(tx, partition, b, k); err != nil {
					return err
				}
			}
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("failed to delete expired item: %w", err)
			}
		}
		return nil
	})
}

// Delete removes one item. Удаление отсутствующего ключа не ошибка.
func (s *Storage) Delete(ctx context.Context, partition, key string) error {
	if s.db == nil {
		return storage.ErrNotInitialized
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, partition)
		if err != nil {
			return err
		}
		if recencyIndexed[partition] {
			if err := dropRecencyEntry(tx, partition, b, []byte(key)); err != nil {
				return err
			}
		}
		if err := b.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
}

// Clear removes all items in one partition
func (s *Storage) Clear(ctx context.Context, partition string) error {
	if s.db == nil {
		return storage.ErrNotInitialized
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := bucket(tx, partition); err != nil {
			return err
		}
		// Пересоздаем bucket целиком вместо поэлементного удаления
		if err := tx.DeleteBucket([]byte(partition)); err != nil {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		if _, err := tx.CreateBucket([]byte(partition)); err != nil {
			return fmt.Errorf("failed to recreate bucket: %w", err)
		}
		if recencyIndexed[partition] {
			if err := tx.DeleteBucket(recencyBucketName(partition)); err != nil {
				return fmt.Errorf("failed to delete recency index: %w", err)
			}
			if _, err := tx.CreateBucket(recencyBucketName(partition)); err != nil {
				return fmt.Errorf("failed to recreate recency index: %w", err)
			}
		}
		return nil
	})
}

// ClearAll removes all items across the well-known partitions.
// Используется при logout.
func (s *Storage) ClearAll(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrNotInitialized
	}

	for _, partition := range storage.Partitions() {
		if err := s.Clear(ctx, partition); err != nil {
			return fmt.Errorf("failed to clear partition %q: %w", partition, err)
		}
	}
	return nil
}
