package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRmUnchangedFile(t *testing.T) {
	repo := newTestRepo(t)
	commitAll(t, repo, map[string]string{"a.txt": "v1"}, "first")

	idx, err := repo.readIndex()
	require.NoError(t, err)
	assert.True(t, idx.hasFile("a.txt", stageNormal))

	removed, err := repo.rm("a.txt", false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, removed)

	_, err = os.Stat(repo.workingPath("a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRmChangedFileRequiresForce(t *testing.T) {
	repo := newTestRepo(t)
	commitAll(t, repo, map[string]string{"a.txt": "v1"}, "first")
	require.NoError(t, os.WriteFile(repo.workingPath("a.txt"), []byte("dirty"), 0644))

	_, err := repo.rm("a.txt", false, false)
	assert.ErrorIs(t, err, ErrFileChanged)

	removed, err := repo.rm("a.txt", false, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, removed)
}

func TestRmDirectoryRequiresRecursive(t *testing.T) {
	repo := newTestRepo(t)
	commitAll(t, repo, map[string]string{"dir/a.txt": "v1"}, "first")

	_, err := repo.rm("dir", false, false)
	assert.ErrorIs(t, err, ErrIsADirectory)

	removed, err := repo.rm("dir", true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/a.txt"}, removed)
}

func TestRmMissingFileRequiresForce(t *testing.T) {
	repo := newTestRepo(t)
	idx, err := repo.readIndex()
	require.NoError(t, err)
	writeWorkingAndAdd(t, repo, idx, "a.txt", "v1")
	require.NoError(t, repo.writeIndex(idx))
	require.NoError(t, os.Remove(repo.workingPath("a.txt")))

	_, err = repo.rm("a.txt", false, false)
	assert.ErrorIs(t, err, ErrFileNotOnDisk)

	removed, err := repo.rm("a.txt", false, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, removed)
}

func TestRmRefusesConflictedPath(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.WriteFile(repo.workingPath("a.txt"), []byte("x"), 0644))
	idx, err := repo.readIndex()
	require.NoError(t, err)
	idx.writeConflict("a.txt", Hash("r"), Hash("g"), Hash("b"))
	require.NoError(t, repo.writeIndex(idx))

	_, err = repo.rm("a.txt", false, true)
	assert.ErrorIs(t, err, ErrUnsupported)
}
