package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/models"
)

var agentUsage = "Usage: chatsync agent <add|list>"

func (c *Cli) runAgent(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. %s", agentUsage)
	}

	switch args[0] {
	case "add":
		return c.runAgentAdd(ctx)
	case "list":
		return c.runAgentList(ctx)
	default:
		return fmt.Errorf("unknown subcommand: %s. %s", args[0], agentUsage)
	}
}

func (c *Cli) runAgentAdd(ctx context.Context) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	c.io.Println("=== Add Agent ===")
	c.io.Println()

	name, err := c.io.ReadInput("Name: ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	description, err := c.io.ReadInput("Description (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read description: %w", err)
	}

	systemPrompt, err := c.io.ReadInput("System prompt: ")
	if err != nil {
		return fmt.Errorf("failed to read system prompt: %w", err)
	}

	modelID, err := c.io.ReadInput("Model ID: ")
	if err != nil {
		return fmt.Errorf("failed to read model id: %w", err)
	}
	if modelID == "" {
		return fmt.Errorf("model id cannot be empty")
	}

	temperature, err := c.readFloat("Temperature (default 1.0): ", 1.0)
	if err != nil {
		return err
	}

	maxTokens, err := c.readInt("Max tokens (default 4096): ", 4096)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	agent := &models.Agent{
		ID:           uuid.New().String(),
		Name:         name,
		Description:  description,
		SystemPrompt: systemPrompt,
		ModelID:      modelID,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		CreatedAt:    now,
		LastEditedAt: now,
		Version:      1,
	}

	if err := c.manager.Sync(ctx, agent, models.OpCreate); err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Agent saved!")
	c.io.Printf("ID: %s\n", agent.ID)
	return nil
}

func (c *Cli) runAgentList(ctx context.Context) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	c.io.Println("=== Agents ===")
	c.io.Println()

	values, err := c.local.GetAll(ctx, storage.PartitionAgents)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}

	if len(values) == 0 {
		c.io.Println("No agents found.")
		c.io.Println()
		c.io.Println("Use 'chatsync agent add' to add your first agent.")
		return nil
	}

	c.io.Printf("Found %d agent(s):\n", len(values))
	c.io.Println()

	for i, raw := range values {
		var agent models.Agent
		if err := json.Unmarshal(raw, &agent); err != nil {
			return fmt.Errorf("failed to decode agent: %w", err)
		}

		c.io.Printf("%d. %s\n", i+1, agent.Name)
		c.io.Printf("   ID:    %s\n", agent.ID)
		c.io.Printf("   Model: %s (temp %.2f, max %d tokens)\n",
			agent.ModelID, agent.Temperature, agent.MaxTokens)
		if agent.Description != "" {
			c.io.Printf("   About: %s\n", agent.Description)
		}
		c.io.Println()
	}

	return nil
}

func (c *Cli) readFloat(prompt string, def float64) (float64, error) {
	input, err := c.io.ReadInput(prompt)
	if err != nil {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}
	if input == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", input, err)
	}
	return value, nil
}

func (c *Cli) readInt(prompt string, def int) (int, error) {
	input, err := c.io.ReadInput(prompt)
	if err != nil {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}
	if input == "" {
		return def, nil
	}
	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", input, err)
	}
	return value, nil
}
