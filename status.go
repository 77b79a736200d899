package main

import "sort"

// StatusReport is the structured result of the status operation: three
// path sets classified the way the façade's status command presents them.
type StatusReport struct {
	Branch      string
	Detached    bool
	Staged      map[string]DiffStatus // index vs HEAD
	Unstaged    map[string]DiffStatus // working copy vs index
	Conflicted  []string
	MergeActive bool
}

// status computes the three-way view of repository state: what's staged
// for the next commit, what's modified in the working copy but not staged,
// and which paths remain conflicted from an in-progress merge.
func (r *Repository) status() (*StatusReport, error) {
	report := &StatusReport{Staged: map[string]DiffStatus{}, Unstaged: map[string]DiffStatus{}}

	detached, err := r.isHeadDetached()
	if err != nil {
		return nil, err
	}
	report.Detached = detached
	if !detached {
		branch, err := r.headBranchName()
		if err != nil {
			return nil, err
		}
		report.Branch = branch
	}

	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}
	headToc, err := r.commitToc(head)
	if err != nil {
		return nil, err
	}

	idx, err := r.readIndex()
	if err != nil {
		return nil, err
	}
	indexToc := idx.toc()

	for path, entry := range tocDiff(headToc, indexToc, nil) {
		if entry.Status != StatusSame {
			report.Staged[path] = entry.Status
		}
	}

	if !r.bare {
		workingToc, err := r.workingCopyToc(idx)
		if err != nil {
			return nil, err
		}
		for path, entry := range tocDiff(indexToc, workingToc, nil) {
			if entry.Status != StatusSame {
				report.Unstaged[path] = entry.Status
			}
		}
	}

	report.Conflicted = idx.conflictedPaths()
	sort.Strings(report.Conflicted)

	inMerge, err := r.isMergeInProgress()
	if err != nil {
		return nil, err
	}
	report.MergeActive = inMerge

	return report, nil
}
