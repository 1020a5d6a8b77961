package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatsync/internal/client/auth"
	"github.com/iudanet/chatsync/internal/client/iocli"
	"github.com/iudanet/chatsync/internal/client/queue"
	"github.com/iudanet/chatsync/internal/client/remote"
	"github.com/iudanet/chatsync/internal/client/storage"
	"github.com/iudanet/chatsync/internal/client/storage/boltdb"
	"github.com/iudanet/chatsync/internal/client/syncmgr"
	"github.com/iudanet/chatsync/internal/models"
	"github.com/iudanet/chatsync/pkg/api"
)

// fakeAPIClient implements auth.Client for testing
type fakeAPIClient struct {
	token string
}

func (f *fakeAPIClient) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	return &api.RegisterResponse{UserID: "u1"}, nil
}

func (f *fakeAPIClient) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	return &api.TokenResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		UserID:       "u1",
		ExpiresIn:    900,
	}, nil
}

func (f *fakeAPIClient) Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error) {
	return nil, fmt.Errorf("not expected in tests")
}

func (f *fakeAPIClient) SetToken(token string) {
	f.token = token
}

// scriptedIO возвращает IOMock, отдающий заготовленные ответы на ввод
// и собирающий весь вывод
type scriptedIO struct {
	mock   *iocli.IOMock
	inputs []string
	output strings.Builder
	pos    int
}

func newScriptedIO(inputs ...string) *scriptedIO {
	s := &scriptedIO{inputs: inputs}
	s.mock = &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			s.output.WriteString(fmt.Sprintln(a...))
		},
		PrintfFunc: func(format string, a ...any) {
			s.output.WriteString(fmt.Sprintf(format, a...))
		},
		ReadInputFunc: func(prompt string) (string, error) {
			return s.next()
		},
		ReadPasswordFunc: func(prompt string) (string, error) {
			return s.next()
		},
	}
	return s
}

func (s *scriptedIO) next() (string, error) {
	if s.pos >= len(s.inputs) {
		return "", fmt.Errorf("no more scripted inputs")
	}
	input := s.inputs[s.pos]
	s.pos++
	return input, nil
}

func emptyRemote() *remote.StoreMock {
	return &remote.StoreMock{
		FetchAllMetadataFunc: func(ctx context.Context, kind, pageToken string, limit int) (*api.MetadataPage, error) {
			return &api.MetadataPage{}, nil
		},
		FetchEntityFunc: func(ctx context.Context, kind, id string) (*api.EntityResponse, error) {
			return nil, remote.ErrEntityNotFound
		},
		PutEntityFunc: func(ctx context.Context, kind string, req *api.PutEntityRequest) error {
			return nil
		},
		DeleteEntityFunc: func(ctx context.Context, kind, id string) error {
			return nil
		},
	}
}

// newTestCli собирает Cli на реальном локальном хранилище с залогиненной
// сессией
func newTestCli(t *testing.T, sio *scriptedIO) *Cli {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	local := boltStore(t)
	authService := auth.NewService(&fakeAPIClient{}, auth.NewSessionStore(local), logger)

	manager := syncmgr.New(local, emptyRemote(), logger,
		syncmgr.Config{BatchSize: 10, BatchDelay: time.Millisecond},
		queue.Config{MaxRetries: 3, BaseDelay: time.Millisecond})
	t.Cleanup(func() { manager.Cleanup(context.Background()) })

	_, err := authService.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	return New(sio.mock, authService, manager, local)
}

func boltStore(t *testing.T) storage.LocalStore {
	t.Helper()

	store := boltdb.New(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCli_AgentAddAndList(t *testing.T) {
	ctx := context.Background()

	sio := newScriptedIO(
		"Helper",              // name
		"General assistant",   // description
		"You are helpful.",    // system prompt
		"gpt-4o",              // model id
		"0.7",                 // temperature
		"2048",                // max tokens
	)
	c := newTestCli(t, sio)

	require.NoError(t, c.runAgentAdd(ctx))
	assert.Contains(t, sio.output.String(), "Agent saved")

	require.NoError(t, c.runAgentList(ctx))

	out := sio.output.String()
	assert.Contains(t, out, "Found 1 agent(s)")
	assert.Contains(t, out, "Helper")
	assert.Contains(t, out, "gpt-4o")
}

func TestCli_AgentAdd_EmptyNameRejected(t *testing.T) {
	sio := newScriptedIO("")
	c := newTestCli(t, sio)

	err := c.runAgentAdd(context.Background())
	assert.ErrorContains(t, err, "name cannot be empty")
}

func TestCli_ConversationAddSayList(t *testing.T) {
	ctx := context.Background()

	sio := newScriptedIO(
		"Trip planning", // title
		"Plan a trip",   // first message
	)
	c := newTestCli(t, sio)

	require.NoError(t, c.runConversationAdd(ctx))

	// Достаем ID из вывода
	out := sio.output.String()
	idx := strings.Index(out, "ID: ")
	require.GreaterOrEqual(t, idx, 0)
	id := strings.TrimSpace(out[idx+4:])

	sio.inputs = append(sio.inputs, "Add museums")
	require.NoError(t, c.runConversationSay(ctx, id))

	require.NoError(t, c.runConversationList(ctx))

	out = sio.output.String()
	assert.Contains(t, out, "Found 1 conversation(s)")
	assert.Contains(t, out, "Trip planning")
	assert.Contains(t, out, "Messages: 2")
}

func TestCli_ConversationList_RecentFirst(t *testing.T) {
	ctx := context.Background()

	sio := newScriptedIO()
	c := newTestCli(t, sio)

	// Сохраняем в обратном хронологическом порядке: list обязан
	// упорядочить по lastEditedAt, а не по порядку записи
	old := models.Conversation{ID: "conv-old", Title: "Old chat", LastEditedAt: 1000, Version: 1}
	fresh := models.Conversation{ID: "conv-fresh", Title: "Fresh chat", LastEditedAt: 2000, Version: 1}
	require.NoError(t, c.local.Set(ctx, storage.PartitionConversations, old.ID, &old, 0))
	require.NoError(t, c.local.Set(ctx, storage.PartitionConversations, fresh.ID, &fresh, 0))

	require.NoError(t, c.runConversationList(ctx))

	out := sio.output.String()
	assert.Contains(t, out, "1. Fresh chat")
	assert.Contains(t, out, "2. Old chat")
}

func TestCli_ConversationSay_NotFound(t *testing.T) {
	sio := newScriptedIO()
	c := newTestCli(t, sio)

	err := c.runConversationSay(context.Background(), "missing-id")
	assert.ErrorContains(t, err, "not found")
}

func TestCli_Status_NotAuthenticated(t *testing.T) {
	sio := newScriptedIO()
	c := newTestCli(t, sio)

	require.NoError(t, c.authService.Logout(context.Background()))
	require.NoError(t, c.runStatus(context.Background()))

	assert.Contains(t, sio.output.String(), "Not authenticated")
}

func TestCli_Sync_EmptyServer(t *testing.T) {
	sio := newScriptedIO()
	c := newTestCli(t, sio)

	require.NoError(t, c.runSync(context.Background()))

	out := sio.output.String()
	assert.Contains(t, out, "Synchronization completed")
	assert.Contains(t, out, "All conversations synchronized")
}

func TestCli_Retry_MissingArg(t *testing.T) {
	sio := newScriptedIO()
	c := newTestCli(t, sio)

	err := c.runRetry(context.Background(), nil)
	assert.ErrorContains(t, err, "missing operation id")
}
