package api

import "encoding/json"

// EntityMetadata представляет облегченное описание сущности без тела.
// Используется для дешевого сравнения версий при начальной синхронизации.
type EntityMetadata struct {
	ID           string `json:"id"`             // уникальный идентификатор сущности
	Version      int64  `json:"version"`       // монотонно растущая версия
	LastEditedAt int64  `json:"last_edited_at"` // unix ms последнего изменения
}

// MetadataPage представляет одну страницу списка метаданных.
// NextPageToken пустой, если страниц больше нет.
type MetadataPage struct {
	Items         []EntityMetadata `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

// PutEntityRequest представляет запрос на сохранение полной сущности.
// Метаданные дублируются рядом с телом, чтобы сервер не парсил body.
type PutEntityRequest struct {
	ID           string          `json:"id"`
	Version      int64           `json:"version"`
	LastEditedAt int64           `json:"last_edited_at"`
	Body         json.RawMessage `json:"body"` // полное тело сущности как есть
}

// EntityResponse представляет ответ с полным телом сущности
type EntityResponse struct {
	ID           string          `json:"id"`
	Version      int64           `json:"version"`
	LastEditedAt int64           `json:"last_edited_at"`
	Body         json.RawMessage `json:"body"`
}
