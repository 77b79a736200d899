package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonAncestorLinearHistory(t *testing.T) {
	repo := newTestRepo(t)
	c1 := commitAll(t, repo, map[string]string{"a.txt": "v1"}, "first")
	c2 := commitAll(t, repo, map[string]string{"a.txt": "v2"}, "second")

	ancestor, err := repo.commonAncestor(c1, c2)
	require.NoError(t, err)
	assert.Equal(t, c1, ancestor)
}

func TestMergeFastForward(t *testing.T) {
	repo := newTestRepo(t)
	c1 := commitAll(t, repo, map[string]string{"a.txt": "v1"}, "first")
	require.NoError(t, repo.createBranch("feature", c1))

	require.NoError(t, repo.checkoutBranch("feature"))
	c2 := commitAll(t, repo, map[string]string{"b.txt": "v1"}, "second")

	require.NoError(t, repo.checkoutBranch("master"))
	result, err := repo.merge("feature", c2)
	require.NoError(t, err)
	assert.True(t, result.FastForward)

	head, err := repo.headCommit()
	require.NoError(t, err)
	assert.Equal(t, c2, head)
}

func TestMergeUpToDate(t *testing.T) {
	repo := newTestRepo(t)
	c1 := commitAll(t, repo, map[string]string{"a.txt": "v1"}, "first")

	result, err := repo.merge("master", c1)
	require.NoError(t, err)
	assert.True(t, result.UpToDate)
}

func TestMergeConflictingChangesRequiresResolution(t *testing.T) {
	repo := newTestRepo(t)
	base := commitAll(t, repo, map[string]string{"a.txt": "base"}, "base")
	require.NoError(t, repo.createBranch("feature", base))

	commitAll(t, repo, map[string]string{"a.txt": "master-side"}, "on master")

	require.NoError(t, repo.checkoutBranch("feature"))
	giver := commitAll(t, repo, map[string]string{"a.txt": "feature-side"}, "on feature")

	require.NoError(t, repo.checkoutBranch("master"))
	result, err := repo.merge("feature", giver)
	require.NoError(t, err)
	assert.True(t, result.Conflicted)
	assert.Equal(t, []string{"a.txt"}, result.Paths)

	inProgress, err := repo.isMergeInProgress()
	require.NoError(t, err)
	assert.True(t, inProgress)

	idx, err := repo.readIndex()
	require.NoError(t, err)
	assert.True(t, idx.isFileInConflict("a.txt"))
}

func TestMergeNonConflictingThreeWay(t *testing.T) {
	repo := newTestRepo(t)
	base := commitAll(t, repo, map[string]string{"a.txt": "base", "b.txt": "base"}, "base")
	require.NoError(t, repo.createBranch("feature", base))

	commitAll(t, repo, map[string]string{"a.txt": "master-edit", "b.txt": "base"}, "on master")

	require.NoError(t, repo.checkoutBranch("feature"))
	giver := commitAll(t, repo, map[string]string{"a.txt": "base", "b.txt": "feature-edit"}, "on feature")

	require.NoError(t, repo.checkoutBranch("master"))
	result, err := repo.merge("feature", giver)
	require.NoError(t, err)
	assert.False(t, result.Conflicted)
	assert.False(t, result.FastForward)

	commitHash, err := repo.commit("", "Thu, 01 Jan 2026 00:00:00 +0000")
	require.NoError(t, err)

	toc, err := repo.commitToc(commitHash)
	require.NoError(t, err)
	assert.Equal(t, Hash(hashBytes([]byte("master-edit"))), toc["a.txt"])
	assert.Equal(t, Hash(hashBytes([]byte("feature-edit"))), toc["b.txt"])
}

func TestMergeRefusesWhileAlreadyInProgress(t *testing.T) {
	repo := newTestRepo(t)
	base := commitAll(t, repo, map[string]string{"a.txt": "base"}, "base")
	require.NoError(t, repo.createBranch("feature", base))
	commitAll(t, repo, map[string]string{"a.txt": "master-side"}, "on master")

	require.NoError(t, repo.checkoutBranch("feature"))
	giver := commitAll(t, repo, map[string]string{"a.txt": "feature-side"}, "on feature")
	require.NoError(t, repo.checkoutBranch("master"))

	_, err := repo.merge("feature", giver)
	require.NoError(t, err)

	_, err = repo.merge("feature", giver)
	assert.ErrorIs(t, err, ErrMergeInProgress)
}
