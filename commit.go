package main

import "fmt"

// commit records the current index as a new commit on the checked-out
// branch. If a merge is in progress, message is ignored in favor of the
// prewritten MERGE_MSG and the commit gets two parents; otherwise it is
// an ordinary single (or zero, for the first commit) parent commit.
func (r *Repository) commit(message, timestamp string) (Hash, error) {
	idx, err := r.readIndex()
	if err != nil {
		return "", err
	}
	if len(idx.conflictedPaths()) > 0 {
		return "", fmt.Errorf("%w", ErrUnresolvedMerge)
	}

	inMerge, err := r.isMergeInProgress()
	if err != nil {
		return "", err
	}
	if inMerge {
		return r.completeMerge(timestamp)
	}

	head, err := r.headCommit()
	if err != nil {
		return "", err
	}
	headToc, err := r.commitToc(head)
	if err != nil {
		return "", err
	}
	if headToc.Equal(idx.toc()) {
		return "", fmt.Errorf("%w", ErrNothingToCommit)
	}

	if message == "" {
		return "", fmt.Errorf("%w: commit message", ErrMissingArg)
	}

	treeHash, err := r.writeTree(nestTree(idx.toc()))
	if err != nil {
		return "", err
	}

	parents, err := r.commitParentHashes()
	if err != nil {
		return "", err
	}

	commitHash, err := r.writeCommit(treeHash, message, parents, timestamp)
	if err != nil {
		return "", err
	}

	headBranch, err := r.headBranchName()
	if err != nil {
		return "", err
	}
	if err := r.writeRefFile(toLocalRef(headBranch), commitHash); err != nil {
		return "", err
	}

	return commitHash, nil
}
