package sync

import (
	"errors"
	"fmt"
)

// ErrSyncFailed matches every *SyncError.
var ErrSyncFailed = errors.New("sync failed")

// SyncError reports the step at which a push or pull stopped. Err carries the
// underlying failure, so errors.Is still matches the git package sentinels.
type SyncError struct {
	Step StepKind
	Err  error
	Hint string // operator instructions, empty when none apply
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

func (e *SyncError) Unwrap() error { return e.Err }

// Is reports ErrSyncFailed as a match so callers need not type-assert.
func (e *SyncError) Is(target error) bool { return target == ErrSyncFailed }

const (
	hintRestoreConflict  = "Your changes are still saved in the stash. Run 'git stash pop' manually to resolve conflicts."
	hintRestoreAfterPull = "Your changes are still saved in the stash. Run 'git stash pop' manually once the pull problem is resolved."
)
