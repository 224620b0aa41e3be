package git

import "errors"

var (
	// ErrPathNotFound means the repository path does not exist.
	ErrPathNotFound = errors.New("path does not exist")
	// ErrNotARepository means the path holds no git repository.
	ErrNotARepository = errors.New("not a git repository")
	// ErrNetwork wraps failures reaching the remote.
	ErrNetwork = errors.New("network error")
	// ErrMergeConflict means a pull stopped on conflicting changes.
	ErrMergeConflict = errors.New("merge conflict")
	// ErrPushRejected means the remote refused at least one ref.
	ErrPushRejected = errors.New("push rejected")
	// ErrStashConflict means a stash could not be applied cleanly.
	ErrStashConflict = errors.New("stash conflict")
	// ErrEmptyMessage is returned when committing with a blank message.
	ErrEmptyMessage = errors.New("commit message is empty")
	// ErrNoUpstream means the remote-tracking branch could not be read.
	ErrNoUpstream = errors.New("tracking branch not available")
)
