package main

// DiffStatus classifies how a single path changed between two TOCs, with
// an optional base for three-way comparisons.
type DiffStatus int

const (
	StatusSame DiffStatus = iota
	StatusAdd
	StatusModify
	StatusDelete
	StatusConflict
)

func (s DiffStatus) String() string {
	switch s {
	case StatusSame:
		return "SAME"
	case StatusAdd:
		return "A"
	case StatusModify:
		return "M"
	case StatusDelete:
		return "D"
	case StatusConflict:
		return "CONFLICT"
	default:
		return "?"
	}
}

// DiffEntry is one path's row in a Diff: the classified status plus
// whichever of receiver/base/giver hashes apply. A zero Hash means the
// field is absent (the path did not exist on that side).
type DiffEntry struct {
	Status   DiffStatus
	Receiver Hash
	Base     Hash
	Giver    Hash
}

// Diff is a full three-way comparison, one entry per path touched by
// either side.
type Diff map[string]DiffEntry

// tocDiff classifies every path present in receiver, giver, or base. When
// base is nil, receiver is used as the base, which collapses the CONFLICT
// case out entirely (no three-way evidence is available).
func tocDiff(receiver, giver, base TOC) Diff {
	if base == nil {
		base = receiver
	}

	paths := make(map[string]struct{})
	for p := range receiver {
		paths[p] = struct{}{}
	}
	for p := range giver {
		paths[p] = struct{}{}
	}
	for p := range base {
		paths[p] = struct{}{}
	}

	diff := make(Diff, len(paths))
	for path := range paths {
		r, inR := receiver[path]
		b, inB := base[path]
		g, inG := giver[path]
		diff[path] = classify(path, r, inR, b, inB, g, inG)
	}
	return diff
}

// classify implements the status-classification table verbatim: the sole
// source of truth for what A/M/D/SAME/CONFLICT mean given which of
// receiver/base/giver are present and how their hashes compare.
func classify(_ string, r Hash, inR bool, b Hash, inB bool, g Hash, inG bool) DiffEntry {
	entry := DiffEntry{}
	if inR {
		entry.Receiver = r
	}
	if inB {
		entry.Base = b
	}
	if inG {
		entry.Giver = g
	}

	switch {
	case inR && inG:
		switch {
		case r == g:
			entry.Status = StatusSame
		case !inB:
			// both sides introduced the path independently, to different
			// content: no base means no "which side changed" evidence.
			entry.Status = StatusConflict
		case r != b && g != b:
			entry.Status = StatusConflict
		default:
			entry.Status = StatusModify
		}

	case !inR && !inB && inG:
		entry.Status = StatusAdd

	case inR && !inB && !inG:
		entry.Status = StatusAdd

	case inR && inB && !inG:
		entry.Status = StatusDelete

	case !inR && inB && inG:
		entry.Status = StatusDelete

	default:
		entry.Status = StatusSame
	}

	return entry
}

// diff performs a two-way comparison with the usual version selection:
// commit-TOC of h1 if given, else the index; commit-TOC of h2 if given,
// else the working copy.
func (r *Repository) diff(h1, h2 Hash) (Diff, error) {
	idx, err := r.readIndex()
	if err != nil {
		return nil, err
	}

	var versionA TOC
	if !h1.IsZero() {
		toc, err := r.commitToc(h1)
		if err != nil {
			return nil, err
		}
		versionA = toc
	} else {
		versionA = idx.toc()
	}

	var versionB TOC
	if !h2.IsZero() {
		toc, err := r.commitToc(h2)
		if err != nil {
			return nil, err
		}
		versionB = toc
	} else {
		toc, err := r.workingCopyToc(idx)
		if err != nil {
			return nil, err
		}
		versionB = toc
	}

	return tocDiff(versionA, versionB, nil), nil
}

// nameStatus projects a Diff down to path -> status, the shape
// changedFilesCommitWouldOverwrite compares.
func nameStatus(d Diff) map[string]DiffStatus {
	out := make(map[string]DiffStatus, len(d))
	for path, entry := range d {
		out[path] = entry.Status
	}
	return out
}

// changedFilesCommitWouldOverwrite is the safety guard a checkout or merge
// consults before touching the working copy: the intersection of (paths
// changed between HEAD and the working copy) and (paths changed between
// HEAD and the target commit h). A non-empty result means applying h would
// destroy uncommitted work.
func (r *Repository) changedFilesCommitWouldOverwrite(h Hash) ([]string, error) {
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
	workingToc, err := r.workingCopyToc(idx)
	if err != nil {
		return nil, err
	}
	targetToc, err := r.commitToc(h)
	if err != nil {
		return nil, err
	}

	dirty := nameStatus(tocDiff(headToc, workingToc, nil))
	incoming := nameStatus(tocDiff(headToc, targetToc, nil))

	var clashing []string
	for path, status := range dirty {
		if status == StatusSame {
			continue
		}
		if other, ok := incoming[path]; ok && other != StatusSame {
			clashing = append(clashing, path)
		}
	}
	return clashing, nil
}

// addedOrModifiedFiles lists paths staged (index vs. HEAD) as added or
// modified.
func (r *Repository) addedOrModifiedFiles() ([]string, error) {
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

	diff := tocDiff(headToc, idx.toc(), nil)
	var paths []string
	for path, entry := range diff {
		if entry.Status == StatusAdd || entry.Status == StatusModify {
			paths = append(paths, path)
		}
	}
	return paths, nil
}
