package boltdb

import (
	"context"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/iudanet/chatsync/internal/client/storage"
)

// Storage represents BoltDB implementation of the local persistent store.
// Партиции store отображаются на buckets BoltDB один к одному.
type Storage struct {
	dbPath   string
	db       *bbolt.DB
	initOnce sync.Once
	initErr  error
}

// Compile-time check that Storage implements LocalStore
var _ storage.LocalStore = (*Storage)(nil)

// New creates a new BoltDB storage instance.
// dbPath is the path to the BoltDB database file. The database is not
// opened here: call Init before any other method.
func New(dbPath string) *Storage {
	return &Storage{dbPath: dbPath}
}

// Init opens the database and creates all well-known partitions.
// Idempotent: повторные и конкурентные вызовы разделяют одну
// инициализацию и возвращают её результат.
func (s *Storage) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		// Открываем BoltDB
		db, err := bbolt.Open(s.dbPath, 0o600, nil)
		if err != nil {
			s.initErr = fmt.Errorf("failed to open boltdb: %w", err)
			return
		}

		// Создаем buckets для всех well-known партиций
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, partition := range storage.Partitions() {
				if _, err := tx.CreateBucketIfNotExists([]byte(partition)); err != nil {
					return fmt.Errorf("failed to create bucket %q: %w", partition, err)
				}
			}
			for partition := range recencyIndexed {
				if _, err := tx.CreateBucketIfNotExists(recencyBucketName(partition)); err != nil {
					return fmt.Errorf("failed to create recency index for %q: %w", partition, err)
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			s.initErr = fmt.Errorf("failed to initialize buckets: %w", err)
			return
		}

		s.db = db
	})

	return s.initErr
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// bucket возвращает bucket партиции или ошибку, если store не
// инициализирован либо партиция вне well-known набора
func bucket(tx *bbolt.Tx, partition string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(partition))
	if b == nil {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownPartition, partition)
	}
	return b, nil
}
