package syncmgr

// Status represents the coarse sync engine state broadcast to subscribers.
// UI слой видит только эти переходы; детали отказов отдельных операций
// доступны через FailedOperations.
type Status string

// Статусы движка синхронизации
const (
	StatusIdle               Status = "idle"
	StatusInitializing       Status = "initializing"
	StatusSyncing            Status = "syncing"
	StatusSuccess            Status = "success"
	StatusPartialSyncSuccess Status = "partial_sync_success"
	StatusBatchSyncProgress  Status = "batch_sync_progress"
	StatusInitialSyncSuccess Status = "initial_sync_success"
	StatusError              Status = "error"
)
