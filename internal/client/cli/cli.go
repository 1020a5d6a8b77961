package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/chatsync/internal/client/auth"
	"github.com/iudanet/chatsync/internal/client/iocli"
	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/client/syncmgr"
)

// Cli связывает команды пользователя с сервисами клиента
type Cli struct {
	io          iocli.IO
	authService *auth.Service
	manager     *syncmgr.Manager
	local       storage.LocalStore
}

func New(io iocli.IO, authService *auth.Service, manager *syncmgr.Manager, local storage.LocalStore) *Cli {
	return &Cli{
		io:          io,
		authService: authService,
		manager:     manager,
		local:       local,
	}
}

// requireSession восстанавливает сохраненную сессию и инициализирует
// движок синхронизации. Общий пролог всех команд кроме register/login.
func (c *Cli) requireSession(ctx context.Context) (*auth.Session, error) {
	session, err := c.authService.Restore(ctx)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, fmt.Errorf("not authenticated. Please run 'chatsync login' first")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	if err := c.manager.Initialize(ctx, session.UserID); err != nil {
		return nil, fmt.Errorf("failed to initialize sync engine: %w", err)
	}

	return session, nil
}

func PrintUsage() {
	fmt.Println("ChatSync Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  chatsync [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version      Show version information")
	fmt.Println("  --server URL   Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH      Path to local database (default: chatsync-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register              Register new user")
	fmt.Println("  login                 Login to server")
	fmt.Println("  logout                Logout (local data is kept)")
	fmt.Println("  status                Show session and sync queue status")
	fmt.Println("  agent add             Add new agent")
	fmt.Println("  agent list            List local agents")
	fmt.Println("  conv add              Start new conversation")
	fmt.Println("  conv list             List local conversations")
	fmt.Println("  conv say <id>         Append a message to conversation")
	fmt.Println("  sync                  Run full synchronization with server")
	fmt.Println("  retry <operation-id>  Retry a failed sync operation")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  chatsync register")
	fmt.Println("  chatsync agent add")
	fmt.Println("  chatsync sync")
	fmt.Println("  chatsync --server https://example.com login")
}
