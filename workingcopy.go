package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// applyDiff materializes a Diff onto the working copy: ADD writes
// receiver (preferred) or giver content; MODIFY overwrites with giver
// content; DELETE unlinks the path; CONFLICT writes a textual conflict
// artifact with both sides' content. Empty directories left behind by
// deletions are pruned afterward.
func (r *Repository) applyDiff(diff Diff) error {
	for path, entry := range diff {
		if err := r.applyDiffEntry(path, entry); err != nil {
			return err
		}
	}
	return r.pruneEmptyDirs()
}

func (r *Repository) applyDiffEntry(path string, entry DiffEntry) error {
	switch entry.Status {
	case StatusAdd:
		hash := entry.Receiver
		if hash.IsZero() {
			hash = entry.Giver
		}
		return r.writeWorkingFile(path, hash)

	case StatusModify:
		return r.writeWorkingFile(path, entry.Giver)

	case StatusDelete:
		err := os.Remove(r.workingPath(path))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error removing %s: %w", path, err)
		}
		return nil

	case StatusConflict:
		return r.writeConflictMarkers(path, entry.Receiver, entry.Giver)

	case StatusSame:
		return nil
	}
	return nil
}

// writeWorkingFile reads blob hash from the object store and writes its
// content to path inside the working copy, creating parent directories as
// needed.
func (r *Repository) writeWorkingFile(path string, hash Hash) error {
	if hash.IsZero() {
		return nil
	}
	content, ok, err := r.readObject(hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: blob %s for %s", ErrUnknownRef, hash, path)
	}

	abs := r.workingPath(path)
	if dir := filepath.Dir(abs); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(abs, content, 0644); err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// writeConflictMarkers writes the textual conflict artifact: receiver
// content, a separator, then giver content.
func (r *Repository) writeConflictMarkers(path string, receiver, giver Hash) error {
	var receiverContent, giverContent []byte
	if !receiver.IsZero() {
		data, ok, err := r.readObject(receiver)
		if err != nil {
			return err
		}
		if ok {
			receiverContent = data
		}
	}
	if !giver.IsZero() {
		data, ok, err := r.readObject(giver)
		if err != nil {
			return err
		}
		if ok {
			giverContent = data
		}
	}

	var out []byte
	out = append(out, "<<<<<<\n"...)
	out = append(out, receiverContent...)
	out = append(out, "======\n"...)
	out = append(out, giverContent...)
	out = append(out, ">>>>>>\n"...)

	abs := r.workingPath(path)
	if dir := filepath.Dir(abs); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(abs, out, 0644); err != nil {
		return fmt.Errorf("error writing conflict markers for %s: %w", path, err)
	}
	return nil
}

// pruneEmptyDirs removes directories left empty by deletions, excluding
// the metadata directory itself.
func (r *Repository) pruneEmptyDirs() error {
	var dirs []string
	err := filepath.WalkDir(r.workDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == metaDirName {
			return filepath.SkipDir
		}
		if path != r.workDir {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking working copy: %w", err)
	}

	// Remove deepest directories first so a chain of now-empty parents
	// collapses in one pass.
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			os.Remove(dirs[i])
		}
	}
	return nil
}

// checkoutBranch switches HEAD to branchName and materializes its commit
// onto the index and (if not bare) the working copy. Refuses to clobber
// uncommitted work that the target commit would overwrite.
func (r *Repository) checkoutBranch(branchName string) error {
	ref := toLocalRef(branchName)
	if !r.refExists(ref) {
		return fmt.Errorf("%w: branch %s", ErrUnknownRef, branchName)
	}
	target, err := r.readRefFile(ref)
	if err != nil {
		return err
	}

	if !r.bare {
		clashing, err := r.changedFilesCommitWouldOverwrite(target)
		if err != nil {
			return err
		}
		if len(clashing) > 0 {
			return fmt.Errorf("%w: %s", ErrWouldOverwrite, fmtPathList(clashing))
		}
	}

	head, err := r.headCommit()
	if err != nil {
		return err
	}
	targetToc, err := r.commitToc(target)
	if err != nil {
		return err
	}

	if err := r.writeIndex(tocToIndex(targetToc)); err != nil {
		return err
	}

	if !r.bare {
		headToc, err := r.commitToc(head)
		if err != nil {
			return err
		}
		if err := r.applyDiff(tocDiff(headToc, targetToc, nil)); err != nil {
			return err
		}
	}

	return r.setHeadBranch(branchName)
}

func fmtPathList(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// writeTextFile writes s to path, overwriting any existing content.
func writeTextFile(path, s string) error {
	return os.WriteFile(path, []byte(s), 0644)
}

// readTextFileIfExists reads path, returning ("", false, nil) if it does
// not exist rather than an error.
func readTextFileIfExists(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}
