package main

import (
	"fmt"
	"os"
)

// rm unstages and deletes the file(s) named by pathSpec. A directory
// requires recursive to expand; a path that no longer exists on disk
// requires force to stage its removal anyway; a file whose on-disk content
// diverges from what is staged requires force too. Conflicted paths can
// never be removed this way: removing a conflicted file is unsupported.
func (r *Repository) rm(pathSpec string, recursive, force bool) ([]string, error) {
	abs := r.workingPath(pathSpec)
	info, statErr := os.Stat(abs)

	if statErr != nil {
		if !os.IsNotExist(statErr) {
			return nil, statErr
		}
		if !force {
			return nil, fmt.Errorf("%w: %s", ErrFileNotOnDisk, pathSpec)
		}
		idx, err := r.readIndex()
		if err != nil {
			return nil, err
		}
		if idx.isFileInConflict(pathSpec) {
			return nil, fmt.Errorf("%w: cannot remove conflicted file %s", ErrUnsupported, pathSpec)
		}
		idx.writeRm(pathSpec)
		if err := r.writeIndex(idx); err != nil {
			return nil, err
		}
		return []string{pathSpec}, nil
	}

	if info.IsDir() && !recursive {
		return nil, fmt.Errorf("%w: %s", ErrIsADirectory, pathSpec)
	}

	paths, err := r.matchingFiles(pathSpec)
	if err != nil {
		return nil, err
	}

	idx, err := r.readIndex()
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		if idx.isFileInConflict(p) {
			return nil, fmt.Errorf("%w: cannot remove conflicted file %s", ErrUnsupported, p)
		}
		if force {
			continue
		}
		staged, ok := idx.entries[indexKey{p, stageNormal}]
		if !ok {
			continue
		}
		content, err := os.ReadFile(r.workingPath(p))
		if err != nil {
			continue
		}
		if hashBytes(blobRecord(content)) != staged {
			return nil, fmt.Errorf("%w: %s", ErrFileChanged, p)
		}
	}

	for _, p := range paths {
		idx.writeRm(p)
		os.Remove(r.workingPath(p))
	}
	if err := r.writeIndex(idx); err != nil {
		return nil, err
	}

	return paths, nil
}
