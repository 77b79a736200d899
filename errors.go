package main

import "errors"

// Sentinel errors for each failure category the façade surfaces. Callers match on
// these with errors.Is; command handlers wrap them with fmt.Errorf("%w: ...")
// to attach path/ref/branch detail before printing.
var (
	// Precondition failures.
	ErrNotARepository = errors.New("not a repository")
	ErrBareRepository = errors.New("operation not allowed in a bare repository")
	ErrNotBare        = errors.New("operation only allowed in a bare repository")
	ErrMissingArg     = errors.New("missing required argument")

	// Reference errors.
	ErrUnknownRef     = errors.New("unknown ref")
	ErrAmbiguousRef   = errors.New("ambiguous revision")
	ErrInvalidRefName = errors.New("invalid ref name")
	ErrNotACommit     = errors.New("ref does not point to a commit")

	// State-conflict errors.
	ErrNothingToCommit  = errors.New("nothing to commit, working directory clean")
	ErrWouldOverwrite   = errors.New("uncommitted changes would be overwritten")
	ErrUnresolvedMerge  = errors.New("cannot commit with unresolved conflicts")
	ErrBranchExists     = errors.New("branch already exists")
	ErrCheckedOutBranch = errors.New("refusing to push to checked-out branch")
	ErrNonFastForward   = errors.New("non-fast-forward push")
	ErrMergeInProgress  = errors.New("a merge is already in progress")
	ErrNoMergeHead      = errors.New("no merge in progress")

	// Path errors.
	ErrNoFilesMatched = errors.New("no files matched")
	ErrIsADirectory   = errors.New("is a directory")
	ErrFileChanged    = errors.New("file has changes, not removing")
	ErrFileNotOnDisk  = errors.New("file does not exist on disk")

	// Remote errors.
	ErrRemoteUnknown = errors.New("remote not configured")
	ErrRemoteBranch  = errors.New("remote branch not found")
	ErrRemoteRepo    = errors.New("source is not a repository")

	// Deliberately unsupported operations.
	ErrUnsupported = errors.New("unsupported operation")
)
