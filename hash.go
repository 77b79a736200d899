package main

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash is a content-derived object identifier: the hex-encoded SHA-1 digest
// of an object's serialized bytes. The zero value denotes "no object".
type Hash string

// hashBytes computes the content hash of data. The same bytes always hash
// to the same Hash; this is the sole determinism guarantee the object
// store depends on.
func hashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// IsZero reports whether h is the empty hash (no object).
func (h Hash) IsZero() bool { return h == "" }

// String implements fmt.Stringer.
func (h Hash) String() string { return string(h) }

// Short returns a shortened form of the hash for display purposes.
func (h Hash) Short() string {
	if len(h) <= 7 {
		return string(h)
	}
	return string(h)[:7]
}

// nestedTree is the nested-directory shape of a tree, as built up from an
// index or working copy before being written to the object store: a
// mapping from name to either a blob hash (leaf) or a further nestedTree.
type nestedTree map[string]any

// flattenTree converts a nested tree into a flat TOC keyed by slash-joined
// path, the representation diff and merge operate over.
func flattenTree(t nestedTree, prefix string) TOC {
	toc := make(TOC)
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		switch v := t[name].(type) {
		case Hash:
			toc[path] = v
		case nestedTree:
			for k, vv := range flattenTree(v, path) {
				toc[k] = vv
			}
		}
	}
	return toc
}

// nestTree converts a flat TOC into the nested shape writeTree expects,
// splitting each path on "/" and grouping entries into sub-trees.
func nestTree(toc TOC) nestedTree {
	root := make(nestedTree)

	paths := make([]string, 0, len(toc))
	for p := range toc {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		parts := strings.Split(path, "/")
		cur := root
		for i, part := range parts {
			if i == len(parts)-1 {
				cur[part] = toc[path]
				continue
			}
			next, ok := cur[part]
			if !ok {
				sub := make(nestedTree)
				cur[part] = sub
				cur = sub
				continue
			}
			sub, ok := next.(nestedTree)
			if !ok {
				// A path collides with a file entry recorded at a shallower
				// depth; the deeper path wins by overwriting the leaf.
				sub = make(nestedTree)
				cur[part] = sub
			}
			cur = sub
		}
	}

	return root
}

// TOC (table of contents) is a flat path -> blob hash snapshot, derived from
// a commit's tree, the index's stage-0 entries, or the working copy.
type TOC map[string]Hash

// Equal reports whether two TOCs contain exactly the same path/hash pairs.
func (t TOC) Equal(other TOC) bool {
	if len(t) != len(other) {
		return false
	}
	for k, v := range t {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func fmtHashList(hs []Hash) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = string(h)
	}
	return strings.Join(parts, ", ")
}
