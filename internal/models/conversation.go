package models

import "time"

// Message представляет одно сообщение внутри диалога
type Message struct {
	Role      string `json:"role"`       // "user" или "assistant"
	Content   string `json:"content"`    // текст сообщения
	CreatedAt int64  `json:"created_at"` // unix ms создания сообщения
}

// Conversation представляет диалог пользователя с агентом.
// "Тяжелый" вид: тело (Messages) может быть большим, поэтому при
// начальной синхронизации сначала сравниваются только метаданные,
// а тела догружаются батчами только для разошедшихся диалогов.
type Conversation struct {
	ID           string    `json:"id"`             // уникальный идентификатор (UUID)
	Title        string    `json:"title"`          // заголовок диалога
	Messages     []Message `json:"messages"`       // упорядоченная последовательность
	CreatedAt    int64     `json:"created_at"`     // unix ms создания
	LastEditedAt int64     `json:"last_edited_at"` // unix ms последнего изменения
	Version      int64     `json:"version"`        // монотонно растущая версия
}

// Compile-time check that Conversation implements Syncable
var _ Syncable = (*Conversation)(nil)

func (c *Conversation) GetID() string          { return c.ID }
func (c *Conversation) GetVersion() int64      { return c.Version }
func (c *Conversation) GetLastEditedAt() int64 { return c.LastEditedAt }

// Touch инкрементирует версию и обновляет время последнего изменения.
// Вызывается перед каждой локальной мутацией: сущность всегда
// пересохраняется целиком, без частичных патчей.
func (c *Conversation) Touch() {
	c.Version++
	c.LastEditedAt = time.Now().UnixMilli()
}
