package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind константы для видов синхронизируемых сущностей
const (
	KindConversation = "conversation"
	KindAgent        = "agent"
)

// Syncable представляет контракт синхронизируемой сущности.
// Любой доменный объект с id, версией и временем последнего изменения
// может участвовать в offline синхронизации. Контракт структурный:
// Conversation и Agent реализуют его независимо, без общего базового типа.
type Syncable interface {
	// GetID возвращает стабильный уникальный идентификатор сущности
	GetID() string

	// GetVersion возвращает монотонно растущую версию.
	// Версия инкрементируется писателем при каждой локальной мутации.
	GetVersion() int64

	// GetLastEditedAt возвращает unix ms времени последнего изменения
	GetLastEditedAt() int64
}

// DecodeFunc декодирует сырой JSON в конкретную сущность своего вида
type DecodeFunc func(data json.RawMessage) (Syncable, error)

// registry отображает тег вида на функцию декодирования.
// Диспетчеризация по тегу вместо наследования: новые виды сущностей
// регистрируются здесь, остальной движок остается generic.
var registry = map[string]DecodeFunc{
	KindConversation: func(data json.RawMessage) (Syncable, error) {
		var c Conversation
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
		}
		return &c, nil
	},
	KindAgent: func(data json.RawMessage) (Syncable, error) {
		var a Agent
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agent: %w", err)
		}
		return &a, nil
	},
}

// DecodeEntity декодирует сырой JSON в сущность по тегу вида.
// Возвращает ошибку для незарегистрированного вида.
func DecodeEntity(kind string, data json.RawMessage) (Syncable, error) {
	decode, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind: %q", kind)
	}
	return decode(data)
}

// KindOf возвращает тег вида для конкретной сущности
func KindOf(entity Syncable) (string, error) {
	switch entity.(type) {
	case *Conversation:
		return KindConversation, nil
	case *Agent:
		return KindAgent, nil
	default:
		return "", fmt.Errorf("unknown entity type %T", entity)
	}
}

// IsKnownKind сообщает, зарегистрирован ли тег вида
func IsKnownKind(kind string) bool {
	_, ok := registry[kind]
	return ok
}

// KnownKinds возвращает отсортированный список зарегистрированных видов
func KnownKinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// ValidateEntity проверяет обязательные поля контракта Syncable.
// Вызывается синхронно до постановки операции в очередь: невалидная
// сущность никогда не попадает ни в локальное хранилище, ни в очередь.
func ValidateEntity(entity Syncable) error {
	if entity == nil {
		return fmt.Errorf("entity is nil")
	}
	if entity.GetID() == "" {
		return fmt.Errorf("entity id is empty")
	}
	if entity.GetVersion() <= 0 {
		return fmt.Errorf("entity version must be positive, got %d", entity.GetVersion())
	}
	if entity.GetLastEditedAt() <= 0 {
		return fmt.Errorf("entity lastEditedAt must be positive, got %d", entity.GetLastEditedAt())
	}
	return nil
}
