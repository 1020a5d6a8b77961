package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	isAuth, err := c.authService.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !isAuth {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'chatsync login' to authenticate.")
		return nil
	}

	session, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	expiresAt := time.Unix(session.ExpiresAt, 0)

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username:      %s\n", session.Username)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	c.io.Println()

	pending := c.manager.PendingCount()
	if pending > 0 {
		c.io.Printf("Pending sync: %d operation(s) waiting to be delivered\n", pending)
	} else {
		c.io.Println("✓ No pending operations")
	}

	failed, err := c.manager.FailedOperations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load failed operations: %w", err)
	}

	if len(failed) == 0 {
		return nil
	}

	c.io.Println()
	c.io.Printf("Failed operations: %d\n", len(failed))
	for _, op := range failed {
		c.io.Printf("  %s  %s %s (%s, retries: %d)\n",
			op.ID, op.Type, op.Kind, op.EntityID, op.RetryCount)
	}
	c.io.Println()
	c.io.Println("Use 'chatsync retry <operation-id>' to retry.")
	return nil
}
