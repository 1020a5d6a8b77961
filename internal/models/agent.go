package models

import "time"

// Agent представляет настроенного пользователем агента: системный промпт
// и параметры вызова модели. "Легкий" вид: тела маленькие, при начальной
// синхронизации агенты выгружаются с сервера целиком и мержатся локально.
type Agent struct {
	ID              string  `json:"id"`            // уникальный идентификатор (UUID)
	Name            string  `json:"name"`          // имя агента
	Description     string  `json:"description"`   // описание для списка агентов
	SystemPrompt    string  `json:"system_prompt"` // системный промпт модели
	ModelID         string  `json:"model_id"`      // идентификатор модели инференса
	Temperature     float64 `json:"temperature"`   // параметр сэмплирования
	MaxTokens       int     `json:"max_tokens"`    // лимит токенов ответа
	KnowledgeBaseID string  `json:"knowledge_base_id,omitempty"`
	CreatedAt       int64   `json:"created_at"`     // unix ms создания
	LastEditedAt    int64   `json:"last_edited_at"` // unix ms последнего изменения
	Version         int64   `json:"version"`        // монотонно растущая версия
}

// Compile-time check that Agent implements Syncable
var _ Syncable = (*Agent)(nil)

func (a *Agent) GetID() string          { return a.ID }
func (a *Agent) GetVersion() int64      { return a.Version }
func (a *Agent) GetLastEditedAt() int64 { return a.LastEditedAt }

// Touch инкрементирует версию и обновляет время последнего изменения
func (a *Agent) Touch() {
	a.Version++
	a.LastEditedAt = time.Now().UnixMilli()
}
