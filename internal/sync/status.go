package sync

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// State is the relationship between the local branch and its remote.
type State int

const (
	// UpToDate means local and remote point at the same commit.
	UpToDate State = iota
	// LocalAhead means there is local work the remote lacks: uncommitted
	// changes or unpushed commits.
	LocalAhead
	// RemoteAhead means the remote has commits local lacks and local has
	// nothing the remote lacks.
	RemoteAhead
	// Diverged means both sides have commits the other lacks.
	Diverged
	// Error means the state could not be determined.
	Error
)

// String returns the human-readable name of a State value.
func (s State) String() string {
	switch s {
	case UpToDate:
		return "UpToDate"
	case LocalAhead:
		return "LocalAhead"
	case RemoteAhead:
		return "RemoteAhead"
	case Diverged:
		return "Diverged"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	msgDirty       = "Uncommitted changes present."
	msgNoTracking  = "No tracking branch configured."
	msgUpToDate    = "Repository is up to date."
	msgLocalAhead  = "You have unpushed changes."
	msgRemoteAhead = "Remote has new changes."
	msgDiverged    = "Branches have diverged."
)

// StatusResult is the outcome of one status check.
type StatusResult struct {
	State   State
	Message string
	// LastRemoteCommit is the committer time of the tracking branch tip; zero
	// when unknown.
	LastRemoteCommit time.Time
	// LastSync is LastRemoteCommit formatted for display, empty when unknown.
	LastSync string
}

// CheckStatus classifies the vault against its remote. It never fails:
// every error, panics included, becomes an Error result carrying the
// failure's description.
func (c *Coordinator) CheckStatus() (result StatusResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("status check panicked", zap.Any("panic", r))
			result = StatusResult{State: Error, Message: fmt.Sprintf("unexpected failure: %v", r)}
		}
	}()

	res, err := c.checkStatus()
	if err != nil {
		c.logger.Warn("status check failed", zap.Error(err))
		return StatusResult{State: Error, Message: err.Error()}
	}
	c.logger.Debug("status checked", zap.Stringer("state", res.State))
	return res
}

func (c *Coordinator) checkStatus() (StatusResult, error) {
	if err := c.ops.Fetch(); err != nil {
		return StatusResult{}, err
	}

	dirty, err := c.ops.IsDirty()
	if err != nil {
		return StatusResult{}, err
	}
	if dirty {
		return StatusResult{State: LocalAhead, Message: msgDirty}, nil
	}

	local, err := c.ops.CurrentBranchCommit()
	if err != nil {
		return StatusResult{}, err
	}
	remote, ok, err := c.ops.TrackingBranchCommit()
	if err != nil {
		return StatusResult{}, err
	}
	if !ok {
		return StatusResult{State: Error, Message: msgNoTracking}, nil
	}

	result := c.withTimestamp(StatusResult{})
	if local == remote {
		result.State, result.Message = UpToDate, msgUpToDate
		return result, nil
	}

	remoteAhead, err := isRemoteAhead(c.ops, local, remote)
	if err != nil {
		return StatusResult{}, err
	}
	if !remoteAhead {
		result.State, result.Message = LocalAhead, msgLocalAhead
		return result, nil
	}

	localBehind, err := c.ops.IsAncestor(local, remote)
	if err != nil {
		return StatusResult{}, err
	}
	if localBehind {
		result.State, result.Message = RemoteAhead, msgRemoteAhead
	} else {
		result.State, result.Message = Diverged, msgDiverged
	}
	return result, nil
}

func (c *Coordinator) withTimestamp(result StatusResult) StatusResult {
	ts, ok := c.ops.LastRemoteCommitTimestamp()
	if !ok {
		return result
	}
	result.LastRemoteCommit = ts
	result.LastSync = FormatSyncTime(ts, c.now())
	return result
}

// FormatSyncTime renders ts as "15:04" when it falls on now's calendar date
// and as "2006-01-02 15:04" otherwise. Dates are compared in now's location.
func FormatSyncTime(ts, now time.Time) string {
	ts = ts.In(now.Location())
	ty, tm, td := ts.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return ts.Format("15:04")
	}
	return ts.Format("2006-01-02 15:04")
}
