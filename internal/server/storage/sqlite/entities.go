package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/chatsync/internal/models"
	"github.com/iudanet/chatsync/internal/server/storage"
	"github.com/iudanet/chatsync/pkg/api"
)

// UpsertEntity creates or updates an entity using last-writer-wins
func (s *Storage) UpsertEntity(ctx context.Context, entity *models.StoredEntity) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var storedVersion, storedLastEditedAt int64
	err = tx.QueryRowContext(ctx,
		`SELECT version, last_edited_at FROM entities WHERE user_id = ? AND kind = ? AND id = ?`,
		entity.UserID, entity.Kind, entity.ID,
	).Scan(&storedVersion, &storedLastEditedAt)

	now := time.Now()

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entities (user_id, kind, id, version, last_edited_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entity.UserID, entity.Kind, entity.ID, entity.Version, entity.LastEditedAt, now, now,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert entity: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO entity_blobs (user_id, kind, id, body) VALUES (?, ?, ?, ?)`,
			entity.UserID, entity.Kind, entity.ID, []byte(entity.Body),
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert entity body: %w", err)
		}

	case err != nil:
		return false, fmt.Errorf("failed to read stored revision: %w", err)

	default:
		// Входящая ревизия сохраняется только если она новее сохраненной.
		// Устаревший PUT не ошибка: клиент с отставшей копией получает
		// идемпотентный успех, а актуальная строка не затирается.
		if !entity.NewerThan(storedVersion, storedLastEditedAt) {
			return false, nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE entities SET version = ?, last_edited_at = ?, updated_at = ?
			 WHERE user_id = ? AND kind = ? AND id = ?`,
			entity.Version, entity.LastEditedAt, now, entity.UserID, entity.Kind, entity.ID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update entity: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO entity_blobs (user_id, kind, id, body) VALUES (?, ?, ?, ?)`,
			entity.UserID, entity.Kind, entity.ID, []byte(entity.Body),
		)
		if err != nil {
			return false, fmt.Errorf("failed to update entity body: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// GetEntity retrieves a single entity with its body
func (s *Storage) GetEntity(ctx context.Context, userID, kind, id string) (*models.StoredEntity, error) {
	query := `
		SELECT e.user_id, e.kind, e.id, e.version, e.last_edited_at, b.body, e.created_at, e.updated_at
		FROM entities e
		JOIN entity_blobs b ON b.user_id = e.user_id AND b.kind = e.kind AND b.id = e.id
		WHERE e.user_id = ? AND e.kind = ? AND e.id = ?
	`

	entity := &models.StoredEntity{}
	var body []byte

	err := s.db.QueryRowContext(ctx, query, userID, kind, id).Scan(
		&entity.UserID,
		&entity.Kind,
		&entity.ID,
		&entity.Version,
		&entity.LastEditedAt,
		&body,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	entity.Body = body
	return entity, nil
}

// ListMetadata returns one keyset page of metadata rows, ordered by id
func (s *Storage) ListMetadata(ctx context.Context, userID, kind, afterID string, limit int) ([]api.EntityMetadata, error) {
	query := `
		SELECT id, version, last_edited_at
		FROM entities
		WHERE user_id = ? AND kind = ? AND id > ?
		ORDER BY id
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, kind, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]api.EntityMetadata, 0, limit)
	for rows.Next() {
		var item api.EntityMetadata
		if err := rows.Scan(&item.ID, &item.Version, &item.LastEditedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}

	return items, nil
}

// DeleteEntity removes an entity and its body
func (s *Storage) DeleteEntity(ctx context.Context, userID, kind, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entity_blobs WHERE user_id = ? AND kind = ? AND id = ?`,
		userID, kind, id,
	); err != nil {
		return fmt.Errorf("failed to delete entity body: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM entities WHERE user_id = ? AND kind = ? AND id = ?`,
		userID, kind, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrEntityNotFound
	}

	return tx.Commit()
}
