package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OperationType тип мутации в операции синхронизации
type OperationType string

// Типы операций синхронизации
const (
	OpCreate OperationType = "create"
	OpUpdate OperationType = "update"
	OpDelete OperationType = "delete"
)

// SyncOperation представляет одну отложенную мутацию в очереди.
// Операция durable: удаляется из очереди только после подтверждения
// применения на сервере либо после исчерпания лимита повторов
// (тогда она переносится в хранилище failed operations).
// Единственное мутируемое поле после создания — RetryCount.
type SyncOperation struct {
	ID         string          `json:"id"`          // уникальный токен операции (UUID)
	Type       OperationType   `json:"type"`        // create | update | delete
	Kind       string          `json:"kind"`        // вид сущности (conversation, agent)
	Data       json.RawMessage `json:"data"`        // полное тело сущности; для delete только id
	EntityID   string          `json:"entity_id"`   // id сущности, к которой относится операция
	Timestamp  int64           `json:"timestamp"`   // unix ms создания операции
	RetryCount int             `json:"retry_count"` // количество неудачных попыток доставки
}

// NewOperation создает операцию для create/update: payload — полное тело сущности
func NewOperation(opType OperationType, kind string, entity Syncable) (*SyncOperation, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}

	return &SyncOperation{
		ID:        uuid.New().String(),
		Type:      opType,
		Kind:      kind,
		Data:      data,
		EntityID:  entity.GetID(),
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// NewDeleteOperation создает операцию удаления: payload содержит только id
func NewDeleteOperation(kind, entityID string) (*SyncOperation, error) {
	data, err := json.Marshal(map[string]string{"id": entityID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal delete payload: %w", err)
	}

	return &SyncOperation{
		ID:        uuid.New().String(),
		Type:      OpDelete,
		Kind:      kind,
		Data:      data,
		EntityID:  entityID,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
