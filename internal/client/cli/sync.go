package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/chatsync/internal/client/syncmgr"
)

func (c *Cli) runSync(ctx context.Context) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	c.io.Println("=== Synchronization ===")
	c.io.Println()

	// Подписка транслирует прогресс движка в терминал: батчи тяжелых
	// диалогов могут качаться заметное время
	unsubscribe := c.manager.Subscribe(func(status syncmgr.Status) {
		switch status {
		case syncmgr.StatusPartialSyncSuccess:
			c.io.Println("✓ Agents synchronized, fetching conversations...")
		case syncmgr.StatusBatchSyncProgress:
			c.io.Println("  ...batch done")
		case syncmgr.StatusInitialSyncSuccess:
			c.io.Println("✓ All conversations synchronized")
		case syncmgr.StatusError:
			c.io.Println("✗ Synchronization error")
		}
	})
	defer unsubscribe()

	if err := c.manager.PerformInitialSync(ctx); err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Synchronization completed!")

	if pending := c.manager.PendingCount(); pending > 0 {
		c.io.Printf("Pending delivery: %d operation(s) in queue\n", pending)
	}

	failed, err := c.manager.FailedOperations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load failed operations: %w", err)
	}
	if len(failed) > 0 {
		c.io.Printf("⚠ %d operation(s) failed, see 'chatsync status'\n", len(failed))
	}

	return nil
}

func (c *Cli) runRetry(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing operation id. Usage: chatsync retry <operation-id>")
	}

	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	if err := c.manager.RetryFailed(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to retry operation: %w", err)
	}

	c.io.Printf("✓ Operation %s queued for retry.\n", args[0])
	return nil
}
