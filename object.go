package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	kindCommit = "commit"
	kindTree   = "tree"
	kindBlob   = "blob"
)

// objectPath returns the on-disk path for an object, using a two-level
// directory split (objects/<first-two-hex>/<rest>) for the same reason
// every pack repo in the retrieval set uses it: a flat objects/ directory
// with hundreds of thousands of entries is slow to list.
func (r *Repository) objectPath(hash Hash) string {
	s := string(hash)
	if len(s) < 2 {
		return filepath.Join(r.objectsDir(), s)
	}
	return filepath.Join(r.objectsDir(), s[:2], s[2:])
}

// writeObject stores data verbatim (no additional header — the caller
// supplies already-serialized blob/tree/commit bytes) and returns its hash.
// Writing the same bytes twice is a no-op that returns the same hash.
func (r *Repository) writeObject(data []byte) (Hash, error) {
	hash := hashBytes(data)
	path := r.objectPath(hash)

	if _, err := os.Stat(path); err == nil {
		return hash, nil // already present; content-addressed, so nothing to do
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("error creating object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("error creating temp object file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("error writing object data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("error closing temp object file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("error finalizing object file: %w", err)
	}

	return hash, nil
}

// readObject returns the raw bytes for hash, or (nil, false, nil) if the
// hash is unknown — a missing object is not an error, only a read that
// found nothing.
func (r *Repository) readObject(hash Hash) ([]byte, bool, error) {
	data, err := os.ReadFile(r.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error reading object %s: %w", hash, err)
	}
	return data, true, nil
}

// objectExists reports whether hash names a stored object.
func (r *Repository) objectExists(hash Hash) bool {
	_, err := os.Stat(r.objectPath(hash))
	return err == nil
}

// allObjects returns the raw bytes of every object in the store.
func (r *Repository) allObjects() ([][]byte, error) {
	var out [][]byte
	err := filepath.WalkDir(r.objectsDir(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out = append(out, data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing objects: %w", err)
	}
	return out, nil
}

// objectKind reads the first whitespace-delimited token of data to classify
// it. Anything that is not literally "commit" or "tree" is a blob, which
// includes a tree whose first record is a blob entry ("blob <hash> <name>").
func objectKind(data []byte) string {
	sp := strings.IndexByte(string(data), ' ')
	nl := strings.IndexByte(string(data), '\n')
	end := len(data)
	if sp != -1 {
		end = sp
	} else if nl != -1 && nl < end {
		end = nl
	}
	token := string(data[:end])

	switch token {
	case kindCommit:
		return kindCommit
	case kindTree:
		return kindTree
	default:
		return kindBlob
	}
}

// commitParents parses "parent <hash>" lines out of a serialized commit.
// Returns nil on non-commit bytes.
func commitParents(data []byte) []Hash {
	if objectKind(data) != kindCommit {
		return nil
	}
	var parents []Hash
	for _, line := range strings.Split(string(data), "\n") {
		if h, ok := strings.CutPrefix(line, "parent "); ok {
			parents = append(parents, Hash(strings.TrimSpace(h)))
		}
		if strings.HasPrefix(line, "Date:") {
			break
		}
	}
	return parents
}

// commitTreeHash parses the tree hash out of the "commit <tree>" header
// line of a serialized commit. Returns the zero Hash on non-commit bytes.
func commitTreeHash(data []byte) Hash {
	if objectKind(data) != kindCommit {
		return ""
	}
	first, _, _ := strings.Cut(string(data), "\n")
	return Hash(strings.TrimSpace(strings.TrimPrefix(first, kindCommit+" ")))
}

// commitMessage extracts the message body (after the blank line separating
// the header from the indented message text) from a serialized commit.
func commitMessage(data []byte) string {
	text := string(data)
	idx := strings.Index(text, "\n\n")
	if idx == -1 {
		return ""
	}
	body := text[idx+2:]
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, "    ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// writeTree serializes a nested tree — an unordered mapping from name to
// either a (blob, hash) or (tree, hash) entry — as newline-terminated
// "kind hash name" records, recursively writing sub-trees first, and
// returns the resulting hash.
func (r *Repository) writeTree(t nestedTree) (Hash, error) {
	type line struct {
		kind, name string
		hash       Hash
	}

	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]line, 0, len(names))
	for _, name := range names {
		switch v := t[name].(type) {
		case Hash:
			lines = append(lines, line{kindBlob, name, v})
		case nestedTree:
			subHash, err := r.writeTree(v)
			if err != nil {
				return "", err
			}
			lines = append(lines, line{kindTree, name, subHash})
		default:
			return "", fmt.Errorf("invalid tree entry for %q", name)
		}
	}

	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%s %s %s\n", l.kind, l.hash, l.name)
	}

	return r.writeObject([]byte(sb.String()))
}

// readTree reads and parses a tree object back into its nested shape.
func (r *Repository) readTree(hash Hash) (nestedTree, error) {
	data, ok, err := r.readObject(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: tree %s", ErrUnknownRef, hash)
	}
	// Tree records begin with "blob" or "tree", so the first token cannot
	// tell a tree from a blob; only commits are rejected here, and anything
	// else must parse as tree records below.
	if objectKind(data) == kindCommit {
		return nil, fmt.Errorf("object %s is not a tree", hash)
	}

	t := make(nestedTree)
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return t, nil
	}
	for _, rec := range strings.Split(text, "\n") {
		parts := strings.SplitN(rec, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid tree record: %q", rec)
		}
		kind, hashStr, name := parts[0], parts[1], parts[2]
		switch kind {
		case kindBlob:
			t[name] = Hash(hashStr)
		case kindTree:
			sub, err := r.readTree(Hash(hashStr))
			if err != nil {
				return nil, err
			}
			t[name] = sub
		default:
			return nil, fmt.Errorf("invalid tree entry kind: %q", kind)
		}
	}
	return t, nil
}

// writeCommit serializes a commit and writes it to the object store:
// "commit <tree>\n", then "parent <hash>\n" for each parent in order, then
// "Date:  <timestamp>\n\n    <message>\n".
func (r *Repository) writeCommit(treeHash Hash, message string, parents []Hash, timestamp string) (Hash, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "commit %s\n", treeHash)
	for _, p := range parents {
		fmt.Fprintf(&sb, "parent %s\n", p)
	}
	fmt.Fprintf(&sb, "Date:  %s\n\n", timestamp)
	for _, l := range strings.Split(message, "\n") {
		fmt.Fprintf(&sb, "    %s\n", l)
	}

	return r.writeObject([]byte(sb.String()))
}

// ancestors returns the recursive closure over a commit's parents.
// Duplicates along different paths in the DAG are preserved; callers
// needing set semantics use isAncestor or dedup themselves.
func (r *Repository) ancestors(hash Hash) ([]Hash, error) {
	data, ok, err := r.readObject(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	parents := commitParents(data)
	out := append([]Hash(nil), parents...)
	for _, p := range parents {
		rest, err := r.ancestors(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
	}
	return out, nil
}

// isAncestor reports whether candidate is an ancestor of descendant.
func (r *Repository) isAncestor(descendant, candidate Hash) (bool, error) {
	if descendant.IsZero() || candidate.IsZero() {
		return false, nil
	}
	visited := make(map[Hash]bool)
	var walk func(h Hash) (bool, error)
	walk = func(h Hash) (bool, error) {
		data, ok, err := r.readObject(h)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		for _, p := range commitParents(data) {
			if p == candidate {
				return true, nil
			}
			if visited[p] {
				continue
			}
			visited[p] = true
			found, err := walk(p)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
		}
		return false, nil
	}
	return walk(descendant)
}

// isUpToDate reports whether the giver adds nothing beyond the receiver:
// true iff receiver is defined and (receiver == giver or giver is an
// ancestor of receiver).
func (r *Repository) isUpToDate(receiver, giver Hash) (bool, error) {
	if receiver.IsZero() {
		return false, nil
	}
	if receiver == giver {
		return true, nil
	}
	return r.isAncestor(receiver, giver)
}

// commitToc flattens the tree of the given commit into a path -> hash TOC.
func (r *Repository) commitToc(commitHash Hash) (TOC, error) {
	if commitHash.IsZero() {
		return TOC{}, nil
	}
	data, ok, err := r.readObject(commitHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRef, commitHash)
	}
	if objectKind(data) != kindCommit {
		return nil, fmt.Errorf("%w: %s", ErrNotACommit, commitHash)
	}

	treeHash := commitTreeHash(data)
	if treeHash.IsZero() {
		return TOC{}, nil
	}
	tree, err := r.readTree(treeHash)
	if err != nil {
		return nil, err
	}
	return flattenTree(tree, ""), nil
}
