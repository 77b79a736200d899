package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCopiesObjectsAndRecordsTrackingRef(t *testing.T) {
	remote := newTestRepo(t)
	c := commitAll(t, remote, map[string]string{"a.txt": "v1"}, "first")

	local := newTestRepo(t)
	require.NoError(t, local.AddRemote("origin", remote.workDir))

	got, err := local.fetch("origin", "master")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	assert.True(t, local.objectExists(c))
	tracked, err := local.readRefFile(toRemoteRef("origin", "master"))
	require.NoError(t, err)
	assert.Equal(t, c, tracked)
}

func TestPushUpdatesRemoteBranch(t *testing.T) {
	remote := newTestRepo(t)
	require.NoError(t, remote.setHeadBranch("unused")) // keeps "master" un-checked-out on remote

	local := newTestRepo(t)
	require.NoError(t, local.AddRemote("origin", remote.workDir))
	c := commitAll(t, local, map[string]string{"a.txt": "v1"}, "first")

	require.NoError(t, local.push("origin", "master", false))

	got, err := remote.readRefFile(toLocalRef("master"))
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestPushRejectsNonFastForwardWithoutForce(t *testing.T) {
	remote := newTestRepo(t)
	require.NoError(t, remote.setHeadBranch("unused")) // keeps "master" un-checked-out on remote

	local := newTestRepo(t)
	require.NoError(t, local.AddRemote("origin", remote.workDir))
	commitAll(t, local, map[string]string{"a.txt": "v1"}, "first")
	require.NoError(t, local.push("origin", "master", false))

	// Remote's master is fabricated to diverge from local's history: an
	// unrelated commit that local's next push cannot fast-forward past.
	divergent := commitAll(t, remote, map[string]string{"x.txt": "unrelated"}, "remote-only work")
	require.NoError(t, remote.writeRefFile(toLocalRef("master"), divergent))

	commitAll(t, local, map[string]string{"a.txt": "v2"}, "second")

	err := local.push("origin", "master", false)
	assert.ErrorIs(t, err, ErrNonFastForward)
}

func TestPushForceOverridesNonFastForward(t *testing.T) {
	remote := newTestRepo(t)
	require.NoError(t, remote.setHeadBranch("unused"))

	local := newTestRepo(t)
	require.NoError(t, local.AddRemote("origin", remote.workDir))
	commitAll(t, local, map[string]string{"a.txt": "v1"}, "first")
	require.NoError(t, local.push("origin", "master", false))

	divergent := commitAll(t, remote, map[string]string{"x.txt": "unrelated"}, "remote-only work")
	require.NoError(t, remote.writeRefFile(toLocalRef("master"), divergent))

	c2 := commitAll(t, local, map[string]string{"a.txt": "v2"}, "second")
	require.NoError(t, local.push("origin", "master", true))

	got, err := remote.readRefFile(toLocalRef("master"))
	require.NoError(t, err)
	assert.Equal(t, c2, got)
}

func TestPushRefusesRemoteCheckedOutBranch(t *testing.T) {
	remote := newTestRepo(t)
	commitAll(t, remote, map[string]string{"a.txt": "v1"}, "first") // HEAD stays on master

	local := newTestRepo(t)
	require.NoError(t, local.AddRemote("origin", remote.workDir))
	commitAll(t, local, map[string]string{"a.txt": "v2"}, "first")

	err := local.push("origin", "master", true)
	assert.ErrorIs(t, err, ErrCheckedOutBranch)
}

func TestClonePopulatesWorkingCopy(t *testing.T) {
	src := newTestRepo(t)
	commitAll(t, src, map[string]string{"a.txt": "v1", "dir/b.txt": "v2"}, "first")

	dst, err := clone(src.workDir, t.TempDir()+"/clone", false)
	require.NoError(t, err)

	data, err := os.ReadFile(dst.workingPath("a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	url, err := dst.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, src.workDir, url)
}
