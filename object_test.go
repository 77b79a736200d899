package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteObjectDedup(t *testing.T) {
	repo := newTestRepo(t)
	h1, err := repo.writeObject([]byte("payload"))
	require.NoError(t, err)
	h2, err := repo.writeObject([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.True(t, repo.objectExists(h1))
}

func TestReadObjectMissingIsNotError(t *testing.T) {
	repo := newTestRepo(t)
	data, ok, err := repo.readObject(Hash("deadbeef"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestObjectKind(t *testing.T) {
	assert.Equal(t, kindCommit, objectKind([]byte("commit abc\nparent def\n")))
	assert.Equal(t, kindTree, objectKind([]byte("tree h2 dir\nblob h1 z.txt\n")))
	assert.Equal(t, kindBlob, objectKind([]byte("blob h1 a.txt\ntree h2 dir\n")))
	assert.Equal(t, kindBlob, objectKind([]byte("just some file content")))
	assert.Equal(t, kindBlob, objectKind([]byte("")))
}

func TestWriteAndReadTreeRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	nested := nestedTree{
		"a.txt": Hash("h1"),
		"dir": nestedTree{
			"b.txt": Hash("h2"),
		},
	}
	hash, err := repo.writeTree(nested)
	require.NoError(t, err)

	got, err := repo.readTree(hash)
	require.NoError(t, err)
	assert.Equal(t, nested, got)
}

func TestWriteCommitFieldsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	treeHash, err := repo.writeTree(nestedTree{"a.txt": Hash("h1")})
	require.NoError(t, err)

	parent, err := repo.writeObject([]byte("commit fake\nDate:  x\n\n    parent commit\n"))
	require.NoError(t, err)

	commitHash, err := repo.writeCommit(treeHash, "add a.txt", []Hash{parent}, "Thu, 01 Jan 2026 00:00:00 +0000")
	require.NoError(t, err)

	data, ok, err := repo.readObject(commitHash)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, treeHash, commitTreeHash(data))
	assert.Equal(t, []Hash{parent}, commitParents(data))
	assert.Equal(t, "add a.txt", commitMessage(data))
}

func TestCommitMessageMultiline(t *testing.T) {
	repo := newTestRepo(t)
	treeHash, err := repo.writeTree(nestedTree{})
	require.NoError(t, err)
	hash, err := repo.writeCommit(treeHash, "line one\nline two", nil, "Thu, 01 Jan 2026 00:00:00 +0000")
	require.NoError(t, err)
	data, _, err := repo.readObject(hash)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", commitMessage(data))
}

func TestAncestorsAndIsAncestor(t *testing.T) {
	repo := newTestRepo(t)
	c1 := commitAll(t, repo, map[string]string{"a.txt": "v1"}, "first")
	c2 := commitAll(t, repo, map[string]string{"a.txt": "v2"}, "second")

	ancestors, err := repo.ancestors(c2)
	require.NoError(t, err)
	assert.Contains(t, ancestors, c1)

	isAnc, err := repo.isAncestor(c2, c1)
	require.NoError(t, err)
	assert.True(t, isAnc)

	isAnc, err = repo.isAncestor(c1, c2)
	require.NoError(t, err)
	assert.False(t, isAnc)
}

func TestCommitTocFlattensTree(t *testing.T) {
	repo := newTestRepo(t)
	c := commitAll(t, repo, map[string]string{
		"a.txt":     "v1",
		"dir/b.txt": "v2",
	}, "first")

	toc, err := repo.commitToc(c)
	require.NoError(t, err)
	assert.Len(t, toc, 2)
	assert.Contains(t, toc, "a.txt")
	assert.Contains(t, toc, "dir/b.txt")
}

func TestCommitTocOfZeroHashIsEmpty(t *testing.T) {
	repo := newTestRepo(t)
	toc, err := repo.commitToc("")
	require.NoError(t, err)
	assert.Empty(t, toc)
}
