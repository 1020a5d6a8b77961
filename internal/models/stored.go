package models

import (
	"encoding/json"
	"time"
)

// StoredEntity представляет сущность в серверном хранилище: метаданные
// плюс непрозрачное тело. Сервер не парсит Body - сравнение версий идет
// по продублированным рядом метаданным.
type StoredEntity struct {
	UserID       string          `json:"user_id"`
	Kind         string          `json:"kind"`
	ID           string          `json:"id"`
	Version      int64           `json:"version"`
	LastEditedAt int64           `json:"last_edited_at"` // unix ms
	Body         json.RawMessage `json:"body"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewerThan reports whether this entity wins last-writer-wins against
// the stored revision: higher version, equal version breaks ties by
// later lastEditedAt.
func (e *StoredEntity) NewerThan(version, lastEditedAt int64) bool {
	if e.Version != version {
		return e.Version > version
	}
	return e.LastEditedAt > lastEditedAt
}
