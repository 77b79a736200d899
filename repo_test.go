package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo initializes a non-bare repository in a fresh temp directory
// and returns the handle, for tests that need the whole object/index/ref
// pipeline instead of a single function in isolation.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	repo, err := initRepository(dir, false)
	require.NoError(t, err)
	return repo
}

// writeWorkingAndAdd writes content to a path inside repo's working copy
// and stages it, the two steps almost every test needs before a commit.
func writeWorkingAndAdd(t *testing.T, repo *Repository, idx *Index, path, content string) {
	t.Helper()
	abs := repo.workingPath(path)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
	require.NoError(t, repo.addPath(idx, path))
}

// commitAll adds every path in files (path -> content) and commits them,
// returning the resulting commit hash.
func commitAll(t *testing.T, repo *Repository, files map[string]string, message string) Hash {
	t.Helper()
	idx, err := repo.readIndex()
	require.NoError(t, err)
	for path, content := range files {
		writeWorkingAndAdd(t, repo, idx, path, content)
	}
	require.NoError(t, repo.writeIndex(idx))
	h, err := repo.commit(message, "Thu, 01 Jan 2026 00:00:00 +0000")
	require.NoError(t, err)
	return h
}

func TestInitRepositoryLayout(t *testing.T) {
	repo := newTestRepo(t)
	for _, dir := range []string{"objects", "refs/heads", "refs/remotes"} {
		info, err := os.Stat(filepath.Join(repo.metaDir, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	branch, err := repo.headBranchName()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestInitBareRepository(t *testing.T) {
	dir := t.TempDir()
	repo, err := initRepository(dir, true)
	require.NoError(t, err)
	assert.True(t, repo.IsBare())
	assert.Equal(t, repo.workDir, repo.metaDir)
}

func TestDiscoverRepositoryWalksUpward(t *testing.T) {
	repo := newTestRepo(t)
	nested := filepath.Join(repo.workDir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := discoverRepository(nested)
	require.NoError(t, err)
	assert.Equal(t, repo.workDir, found.workDir)
}

func TestDiscoverRepositoryNotFound(t *testing.T) {
	_, err := discoverRepository(t.TempDir())
	assert.ErrorIs(t, err, ErrNotARepository)
}
