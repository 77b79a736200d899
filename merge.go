package main

import (
	"fmt"
	"sort"
	"strings"
)

// commonAncestor finds the most recent common ancestor of a and b: sort
// the two hashes lexicographically, prepend each to its own ancestor
// list, and take the first element of the intersection of the two
// resulting lists. Sorting first makes the pick deterministic among
// multiple equally-eligible ancestors, rather than depending on argument
// order.
func (r *Repository) commonAncestor(a, b Hash) (Hash, error) {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}

	loAncestors, err := r.ancestors(lo)
	if err != nil {
		return "", err
	}
	hiAncestors, err := r.ancestors(hi)
	if err != nil {
		return "", err
	}
	loList := append([]Hash{lo}, loAncestors...)
	hiList := append([]Hash{hi}, hiAncestors...)

	hiSet := make(map[Hash]bool, len(hiList))
	for _, h := range hiList {
		hiSet[h] = true
	}
	for _, h := range loList {
		if hiSet[h] {
			return h, nil
		}
	}
	return "", nil
}

// canFastForward reports whether a merge of giver into receiver can
// proceed by simply moving the ref: receiver is undefined (first commit
// on an empty branch) or receiver is an ancestor of giver.
func (r *Repository) canFastForward(receiver, giver Hash) (bool, error) {
	if receiver.IsZero() {
		return true, nil
	}
	return r.isAncestor(giver, receiver)
}

// isAForceFetch reports whether giver's history diverges from receiver's:
// receiver is defined and is not an ancestor of giver. push uses this to
// refuse a non-fast-forward push unless the force flag is set.
func (r *Repository) isAForceFetch(receiver, giver Hash) (bool, error) {
	if receiver.IsZero() {
		return false, nil
	}
	isAnc, err := r.isAncestor(giver, receiver)
	if err != nil {
		return false, err
	}
	return !isAnc, nil
}

// mergeDiff computes the three-way TOC-diff between receiver and giver
// commits, using their common ancestor as base.
func (r *Repository) mergeDiff(receiver, giver Hash) (Diff, error) {
	base, err := r.commonAncestor(receiver, giver)
	if err != nil {
		return nil, err
	}

	receiverToc, err := r.commitToc(receiver)
	if err != nil {
		return nil, err
	}
	giverToc, err := r.commitToc(giver)
	if err != nil {
		return nil, err
	}
	baseToc, err := r.commitToc(base)
	if err != nil {
		return nil, err
	}

	return tocDiff(receiverToc, giverToc, baseToc), nil
}

// MergeResult reports what a merge attempt actually did, for the façade to
// present to the user.
type MergeResult struct {
	FastForward bool
	UpToDate    bool
	Conflicted  bool
	Paths       []string
}

// fastForwardMerge performs the fast-forward procedure: move the local
// branch ref to giver, replace the index wholesale, and (if not bare)
// apply the two-way diff to the working copy. No commit is created.
func (r *Repository) fastForwardMerge(branchName string, receiver, giver Hash) error {
	giverToc, err := r.commitToc(giver)
	if err != nil {
		return err
	}
	if err := r.writeIndex(tocToIndex(giverToc)); err != nil {
		return err
	}

	if !r.bare {
		receiverToc, err := r.commitToc(receiver)
		if err != nil {
			return err
		}
		if err := r.applyDiff(tocDiff(receiverToc, giverToc, nil)); err != nil {
			return err
		}
	}

	return r.writeRefFile(toLocalRef(branchName), giver)
}

// beginMerge performs non-fast-forward merge initiation: writes
// MERGE_HEAD/MERGE_MSG, clears and restages the index according to the
// merge diff, and (if not bare) applies that diff to the working copy.
// The caller commits separately to complete the merge.
func (r *Repository) beginMerge(mergeRef, headBranch string, receiver, giver Hash) (Diff, error) {
	diff, err := r.mergeDiff(receiver, giver)
	if err != nil {
		return nil, err
	}

	if err := r.writeRefFile("MERGE_HEAD", giver); err != nil {
		return nil, err
	}
	if err := r.writeMergeMsg(mergeRef, headBranch, diff); err != nil {
		return nil, err
	}

	idx := newIndex()
	for path, entry := range diff {
		switch entry.Status {
		case StatusConflict:
			idx.writeConflict(path, entry.Receiver, entry.Giver, entry.Base)
		case StatusModify:
			idx.writeNonConflict(path, entry.Giver)
		case StatusAdd, StatusSame:
			chosen := entry.Receiver
			if chosen.IsZero() {
				chosen = entry.Giver
			}
			idx.writeNonConflict(path, chosen)
		case StatusDelete:
			// omitted entirely: neither side keeps the path.
		}
	}
	if err := r.writeIndex(idx); err != nil {
		return nil, err
	}

	if !r.bare {
		if err := r.applyDiff(diff); err != nil {
			return nil, err
		}
	}

	return diff, nil
}

// writeMergeMsg composes the MERGE_MSG a subsequent commit will use to
// complete the merge, listing conflicted paths when present.
func (r *Repository) writeMergeMsg(mergeRef, headBranch string, diff Diff) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Merge %s into %s\n", mergeRef, headBranch)

	var conflicted []string
	for path, entry := range diff {
		if entry.Status == StatusConflict {
			conflicted = append(conflicted, path)
		}
	}
	if len(conflicted) > 0 {
		sort.Strings(conflicted)
		sb.WriteString("\nConflicts:\n")
		for _, path := range conflicted {
			fmt.Fprintf(&sb, "\t%s\n", path)
		}
	}

	return writeTextFile(r.mergeMsgPath(), sb.String())
}

// readMergeMsg returns the prewritten merge commit message, or "" if none
// is in progress.
func (r *Repository) readMergeMsg() (string, error) {
	data, ok, err := readTextFileIfExists(r.mergeMsgPath())
	if err != nil || !ok {
		return "", err
	}
	return data, nil
}

// merge performs a merge of giver into the branch named branchName,
// dispatching to fast-forward or the three-way initiation procedure.
func (r *Repository) merge(branchName string, giver Hash) (*MergeResult, error) {
	headBranch, err := r.headBranchName()
	if err != nil {
		return nil, err
	}
	receiver, err := r.headCommit()
	if err != nil {
		return nil, err
	}

	if inProgress, err := r.isMergeInProgress(); err != nil {
		return nil, err
	} else if inProgress {
		return nil, fmt.Errorf("%w", ErrMergeInProgress)
	}

	upToDate, err := r.isUpToDate(receiver, giver)
	if err != nil {
		return nil, err
	}
	if upToDate {
		return &MergeResult{UpToDate: true}, nil
	}

	if !r.bare {
		clashing, err := r.changedFilesCommitWouldOverwrite(giver)
		if err != nil {
			return nil, err
		}
		if len(clashing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrWouldOverwrite, fmtPathList(clashing))
		}
	}

	canFF, err := r.canFastForward(receiver, giver)
	if err != nil {
		return nil, err
	}
	if canFF {
		if err := r.fastForwardMerge(headBranch, receiver, giver); err != nil {
			return nil, err
		}
		return &MergeResult{FastForward: true}, nil
	}

	diff, err := r.beginMerge(branchName, headBranch, receiver, giver)
	if err != nil {
		return nil, err
	}

	var conflicted []string
	for path, entry := range diff {
		if entry.Status == StatusConflict {
			conflicted = append(conflicted, path)
		}
	}
	sort.Strings(conflicted)

	return &MergeResult{Conflicted: len(conflicted) > 0, Paths: conflicted}, nil
}

// completeMerge finishes an in-progress merge with a two-parent commit,
// using the prewritten MERGE_MSG, and clears MERGE_HEAD/MERGE_MSG on
// success.
func (r *Repository) completeMerge(timestamp string) (Hash, error) {
	msg, err := r.readMergeMsg()
	if err != nil {
		return "", err
	}

	idx, err := r.readIndex()
	if err != nil {
		return "", err
	}
	if len(idx.conflictedPaths()) > 0 {
		return "", fmt.Errorf("%w", ErrUnresolvedMerge)
	}

	treeHash, err := r.writeTree(nestTree(idx.toc()))
	if err != nil {
		return "", err
	}

	parents, err := r.commitParentHashes()
	if err != nil {
		return "", err
	}

	commitHash, err := r.writeCommit(treeHash, msg, parents, timestamp)
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
	if err := r.clearMergeState(); err != nil {
		return "", err
	}

	return commitHash, nil
}
