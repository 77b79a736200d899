package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPathStagesNonConflicted(t *testing.T) {
	repo := newTestRepo(t)
	idx, err := repo.readIndex()
	require.NoError(t, err)
	writeWorkingAndAdd(t, repo, idx, "a.txt", "hello")

	assert.True(t, idx.hasFile("a.txt", stageNormal))
	assert.False(t, idx.isFileInConflict("a.txt"))
}

func TestAddPathMissingFile(t *testing.T) {
	repo := newTestRepo(t)
	idx, err := repo.readIndex()
	require.NoError(t, err)
	err = repo.addPath(idx, "missing.txt")
	assert.ErrorIs(t, err, ErrFileNotOnDisk)
}

func TestAddPathDirectory(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(repo.workingPath("dir"), 0755))
	idx, err := repo.readIndex()
	require.NoError(t, err)
	err = repo.addPath(idx, "dir")
	assert.ErrorIs(t, err, ErrIsADirectory)
}

func TestWriteIndexRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	idx, err := repo.readIndex()
	require.NoError(t, err)
	writeWorkingAndAdd(t, repo, idx, "a.txt", "v1")
	writeWorkingAndAdd(t, repo, idx, "dir/b.txt", "v2")
	require.NoError(t, repo.writeIndex(idx))

	reread, err := repo.readIndex()
	require.NoError(t, err)
	assert.Equal(t, idx.toc(), reread.toc())
}

func TestWriteConflictAndNonConflict(t *testing.T) {
	idx := newIndex()
	idx.writeConflict("a.txt", Hash("receiver"), Hash("giver"), Hash("base"))
	assert.True(t, idx.isFileInConflict("a.txt"))
	assert.Equal(t, []string{"a.txt"}, idx.conflictedPaths())

	idx.writeNonConflict("a.txt", Hash("resolved"))
	assert.False(t, idx.isFileInConflict("a.txt"))
	assert.Equal(t, Hash("resolved"), idx.toc()["a.txt"])
}

func TestWriteConflictWithoutBase(t *testing.T) {
	idx := newIndex()
	idx.writeConflict("a.txt", Hash("receiver"), Hash("giver"), "")
	assert.False(t, idx.hasFile("a.txt", stageBase))
	assert.True(t, idx.hasFile("a.txt", stageReceiver))
	assert.True(t, idx.hasFile("a.txt", stageGiver))
}

func TestWriteRm(t *testing.T) {
	idx := newIndex()
	idx.writeNonConflict("a.txt", Hash("h1"))
	idx.writeRm("a.txt")
	assert.False(t, idx.hasFile("a.txt", stageNormal))
}

func TestMatchingFilesExpandsDirectory(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(repo.workingPath("dir/sub"), 0755))
	require.NoError(t, os.WriteFile(repo.workingPath("dir/a.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(repo.workingPath("dir/sub/b.txt"), []byte("y"), 0644))

	matches, err := repo.matchingFiles("dir")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dir/a.txt", "dir/sub/b.txt"}, matches)
}

func TestMatchingFilesNoMatch(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.matchingFiles("nope")
	assert.ErrorIs(t, err, ErrNoFilesMatched)
}

func TestWorkingCopyToc(t *testing.T) {
	repo := newTestRepo(t)
	idx, err := repo.readIndex()
	require.NoError(t, err)
	writeWorkingAndAdd(t, repo, idx, "a.txt", "hello")

	// untracked: present on disk but never staged, must not appear.
	require.NoError(t, os.WriteFile(repo.workingPath("untracked.txt"), []byte("nope"), 0644))

	toc, err := repo.workingCopyToc(idx)
	require.NoError(t, err)
	assert.Equal(t, hashBytes([]byte("hello")), toc["a.txt"])
	assert.NotContains(t, toc, "untracked.txt")
	assert.Len(t, toc, 1)
}

func TestWorkingCopyTocSkipsTrackedButMissingFromDisk(t *testing.T) {
	repo := newTestRepo(t)
	idx, err := repo.readIndex()
	require.NoError(t, err)
	writeWorkingAndAdd(t, repo, idx, "a.txt", "hello")
	require.NoError(t, os.Remove(repo.workingPath("a.txt")))

	toc, err := repo.workingCopyToc(idx)
	require.NoError(t, err)
	assert.NotContains(t, toc, "a.txt")
}
