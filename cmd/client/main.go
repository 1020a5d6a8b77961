package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/chatsync/internal/client/auth"
	"github.com/iudanet/chatsync/internal/client/cli"
	"github.com/iudanet/chatsync/internal/client/iocli"
	"github.com/iudanet/chatsync/internal/client/queue"
	"github.com/iudanet/chatsync/internal/client/remote"
	"github.com/iudanet/chatsync/internal/client/storage/boltdb"
	"github.com/iudanet/chatsync/internal/client/syncmgr"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "chatsync-client.db", "Path to local database")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	// Логи не должны мешать выводу команд: по умолчанию только warnings
	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx := context.Background()

	// Открываем локальное хранилище
	local := boltdb.New(*dbPath)
	if err := local.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := local.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Собираем сервисы клиента
	apiClient := remote.NewClient(*serverURL)
	sessions := auth.NewSessionStore(local)
	authService := auth.NewService(apiClient, sessions, logger)
	manager := syncmgr.New(local, apiClient, logger, syncmgr.DefaultConfig(), queue.DefaultConfig())

	c := cli.New(iocli.NewStdio(), authService, manager, local)
	c.Run(ctx, args[0], args[1:])
}

func printVersion() {
	fmt.Printf("ChatSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
