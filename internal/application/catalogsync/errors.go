package catalogsync

import (
	"github.com/erp/catalogsync/internal/domain/syncrun"
)

// Fatal error codes carried by aborted reports
const (
	CodeSourceUnavailable  = "SOURCE_UNAVAILABLE"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeStoreCommitFailure = "STORE_COMMIT_FAILURE"
	CodeSyncInProgress     = "SYNC_IN_PROGRESS"
	CodeUnknownTable       = "UNKNOWN_TABLE"
)

// Sync service errors
var (
	ErrSyncInProgress = syncrun.ErrSyncInProgress
	ErrUnknownTable   = syncrun.ErrUnknownTable
)
