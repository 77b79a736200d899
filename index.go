package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Stages identify which side of a conflict an index entry belongs to.
// Stage 0 is a normal, non-conflicted entry; stages 1-3 appear only for a
// conflicted path, with stage 1 present only when the path has a base
// version.
const (
	stageNormal   = 0
	stageBase     = 1
	stageReceiver = 2
	stageGiver    = 3
)

type indexKey struct {
	path  string
	stage int
}

// Index is the staged snapshot of the next commit: a flat path -> hash map
// at stage 0, plus up to three staged copies per unresolved conflict.
type Index struct {
	entries map[indexKey]Hash
}

func newIndex() *Index {
	return &Index{entries: make(map[indexKey]Hash)}
}

func (r *Repository) readIndex() (*Index, error) {
	f, err := os.Open(r.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return newIndex(), nil
		}
		return nil, fmt.Errorf("error opening index file: %w", err)
	}
	defer f.Close()

	idx := newIndex()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid index entry: %q", line)
		}
		path, stageStr, hashStr := parts[0], parts[1], parts[2]
		stage, err := strconv.Atoi(stageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid index stage in entry %q: %w", line, err)
		}
		idx.entries[indexKey{path, stage}] = Hash(hashStr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning index file: %w", err)
	}
	return idx, nil
}

// writeIndex rewrites the whole index file in deterministic (path, stage)
// order: read, mutate in memory, rewrite whole, rather than appending.
func (r *Repository) writeIndex(idx *Index) error {
	keys := make([]indexKey, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].path != keys[j].path {
			return keys[i].path < keys[j].path
		}
		return keys[i].stage < keys[j].stage
	})

	var sb strings.Builder
	if len(keys) == 0 {
		sb.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d %s\n", k.path, k.stage, idx.entries[k])
	}

	tmp := r.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("error writing index file: %w", err)
	}
	if err := os.Rename(tmp, r.indexPath()); err != nil {
		return fmt.Errorf("error finalizing index file: %w", err)
	}
	return nil
}

// toc returns the stage-0 (non-conflicted) snapshot of idx as a TOC.
func (idx *Index) toc() TOC {
	t := make(TOC)
	for k, h := range idx.entries {
		if k.stage == stageNormal {
			t[k.path] = h
		}
	}
	return t
}

// hasFile reports whether path is staged at the given stage.
func (idx *Index) hasFile(path string, stage int) bool {
	_, ok := idx.entries[indexKey{path, stage}]
	return ok
}

// isFileInConflict reports whether path currently has a stage 2 or 3 entry.
func (idx *Index) isFileInConflict(path string) bool {
	return idx.hasFile(path, stageReceiver) || idx.hasFile(path, stageGiver)
}

// conflictedPaths returns the sorted set of paths with an unresolved
// conflict (any entry at stage 1, 2, or 3).
func (idx *Index) conflictedPaths() []string {
	set := make(map[string]bool)
	for k := range idx.entries {
		if k.stage != stageNormal {
			set[k.path] = true
		}
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// writeNonConflict clears any conflict stages for path and records a single
// stage-0 entry pointing at hash.
func (idx *Index) writeNonConflict(path string, hash Hash) {
	delete(idx.entries, indexKey{path, stageBase})
	delete(idx.entries, indexKey{path, stageReceiver})
	delete(idx.entries, indexKey{path, stageGiver})
	idx.entries[indexKey{path, stageNormal}] = hash
}

// writeConflict stages the three sides of an unresolved merge for path,
// clearing any prior stage-0 entry. base may be the zero Hash when the path
// has no common ancestor (add/add conflicts).
func (idx *Index) writeConflict(path string, receiver, giver, base Hash) {
	delete(idx.entries, indexKey{path, stageNormal})
	if !base.IsZero() {
		idx.entries[indexKey{path, stageBase}] = base
	}
	if !receiver.IsZero() {
		idx.entries[indexKey{path, stageReceiver}] = receiver
	}
	if !giver.IsZero() {
		idx.entries[indexKey{path, stageGiver}] = giver
	}
}

// writeRm removes every stage of path from the index.
func (idx *Index) writeRm(path string) {
	delete(idx.entries, indexKey{path, stageNormal})
	delete(idx.entries, indexKey{path, stageBase})
	delete(idx.entries, indexKey{path, stageReceiver})
	delete(idx.entries, indexKey{path, stageGiver})
}

// tocToIndex builds a fresh, fully non-conflicted Index from a TOC, used
// when materializing a commit's tree directly into the index (checkout,
// fast-forward merge, merge completion).
func tocToIndex(toc TOC) *Index {
	idx := newIndex()
	for path, hash := range toc {
		idx.entries[indexKey{path, stageNormal}] = hash
	}
	return idx
}

// workingCopyToc hashes the current on-disk content of every path the index
// tracks at stage 0, keeping only those still present on disk. It does not
// write any object, and it intentionally does not list untracked files;
// callers compare the result against the index or a commit's TOC to
// classify status.
func (r *Repository) workingCopyToc(idx *Index) (TOC, error) {
	toc := make(TOC)
	for path := range idx.toc() {
		abs := r.workingPath(path)
		content, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error reading file %s: %w", path, err)
		}
		toc[path] = hashBytes(blobRecord(content))
	}
	return toc, nil
}

// blobRecord returns the exact bytes a file's content is hashed and stored
// as: the raw content, unmodified. Kept as a named step so the hashing
// scheme used by workingCopyToc and by the add path can never drift apart.
func blobRecord(content []byte) []byte {
	return content
}

// matchingFiles expands a command-line path argument (a file, a directory,
// or "." for the whole working copy) into the set of working-copy relative
// paths it names, skipping the metadata directory.
func (r *Repository) matchingFiles(pathSpec string) ([]string, error) {
	abs := filepath.Join(r.workDir, pathSpec)
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoFilesMatched, pathSpec)
		}
		return nil, err
	}

	var matches []string
	if !info.IsDir() {
		rel, err := filepath.Rel(r.workDir, abs)
		if err != nil {
			return nil, err
		}
		return []string{filepath.ToSlash(rel)}, nil
	}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == metaDirName {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(r.workDir, path)
		if err != nil {
			return err
		}
		matches = append(matches, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesMatched, pathSpec)
	}
	sort.Strings(matches)
	return matches, nil
}

// addPath hashes and stores the current on-disk content of path (working
// copy relative), then stages it as a non-conflicted entry.
func (r *Repository) addPath(idx *Index, path string) error {
	abs := r.workingPath(path)
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotOnDisk, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsADirectory, path)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("error reading file %s: %w", path, err)
	}

	hash, err := r.writeObject(blobRecord(content))
	if err != nil {
		return fmt.Errorf("error storing object for file %s: %w", path, err)
	}

	idx.writeNonConflict(path, hash)
	return nil
}
