package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/models"
)

var convUsage = "Usage: chatsync conv <add|list|say <id>>"

func (c *Cli) runConversation(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. %s", convUsage)
	}

	switch args[0] {
	case "add":
		return c.runConversationAdd(ctx)
	case "list":
		return c.runConversationList(ctx)
	case "say":
		if len(args) < 2 {
			return fmt.Errorf("missing conversation id. %s", convUsage)
		}
		return c.runConversationSay(ctx, args[1])
	default:
		return fmt.Errorf("unknown subcommand: %s. %s", args[0], convUsage)
	}
}

func (c *Cli) runConversationAdd(ctx context.Context) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	c.io.Println("=== New Conversation ===")
	c.io.Println()

	title, err := c.io.ReadInput("Title: ")
	if err != nil {
		return fmt.Errorf("failed to read title: %w", err)
	}
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	content, err := c.io.ReadInput("First message: ")
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}

	now := time.Now().UnixMilli()
	conv := &models.Conversation{
		ID:           uuid.New().String(),
		Title:        title,
		CreatedAt:    now,
		LastEditedAt: now,
		Version:      1,
	}
	if content != "" {
		conv.Messages = append(conv.Messages, models.Message{
			Role:      "user",
			Content:   content,
			CreatedAt: now,
		})
	}

	if err := c.manager.Sync(ctx, conv, models.OpCreate); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Conversation saved!")
	c.io.Printf("ID: %s\n", conv.ID)
	return nil
}

func (c *Cli) runConversationList(ctx context.Context) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	c.io.Println("=== Conversations ===")
	c.io.Println()

	// Недавние диалоги сверху: читаем через индекс актуальности
	values, err := c.local.GetAllByRecency(ctx, storage.PartitionConversations)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(values) == 0 {
		c.io.Println("No conversations found.")
		c.io.Println()
		c.io.Println("Use 'chatsync conv add' to start your first conversation.")
		return nil
	}

	c.io.Printf("Found %d conversation(s):\n", len(values))
	c.io.Println()

	for i, raw := range values {
		var conv models.Conversation
		if err := json.Unmarshal(raw, &conv); err != nil {
			return fmt.Errorf("failed to decode conversation: %w", err)
		}

		edited := time.UnixMilli(conv.LastEditedAt)
		c.io.Printf("%d. %s\n", i+1, conv.Title)
		c.io.Printf("   ID:       %s\n", conv.ID)
		c.io.Printf("   Messages: %d, last edited %s\n",
			len(conv.Messages), edited.Format(time.RFC3339))
		c.io.Println()
	}

	return nil
}

func (c *Cli) runConversationSay(ctx context.Context, id string) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	var conv models.Conversation
	err := c.local.Get(ctx, storage.PartitionConversations, id, &conv)
	if errors.Is(err, storage.ErrItemNotFound) {
		return fmt.Errorf("conversation %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	content, err := c.io.ReadInput("Message: ")
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	if content == "" {
		return fmt.Errorf("message cannot be empty")
	}

	conv.Messages = append(conv.Messages, models.Message{
		Role:      "user",
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	})
	conv.Touch()

	if err := c.manager.Sync(ctx, &conv, models.OpUpdate); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	c.io.Println("✓ Message added.")
	return nil
}
