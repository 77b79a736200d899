package main

import (
	"fmt"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

// openRemote resolves the named remote's configured URL and opens it as a
// second, independently-rooted *Repository rather than reaching for an
// ambient-CWD "on-remote" idiom.
func (r *Repository) openRemote(name string) (*Repository, string, error) {
	url, err := r.RemoteURL(name)
	if err != nil {
		return nil, "", err
	}
	remote, err := openAnyRepositoryAt(url)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrRemoteRepo, url)
	}
	return remote, url, nil
}

// copyAllObjects copies every object in src's store into dst's, relying on
// writeObject's content-addressed dedup to skip objects dst already has.
func copyAllObjects(src, dst *Repository) error {
	objects, err := src.allObjects()
	if err != nil {
		return err
	}
	for _, data := range objects {
		if _, err := dst.writeObject(data); err != nil {
			return err
		}
	}
	return nil
}

// fetch copies every object from remote into the local store, then records
// FETCH_HEAD and the remote-tracking ref for branch.
func (r *Repository) fetch(remoteName, branch string) (Hash, error) {
	remote, url, err := r.openRemote(remoteName)
	if err != nil {
		return "", err
	}

	branchHash, err := remote.hash(branch)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRemoteBranch, branch)
	}

	if err := copyAllObjects(remote, r); err != nil {
		return "", err
	}

	if err := r.writeFetchHead(map[string]Hash{branch: branchHash}, url); err != nil {
		return "", err
	}
	if err := r.writeRefFile(toRemoteRef(remoteName, branch), branchHash); err != nil {
		return "", err
	}

	return branchHash, nil
}

// push copies every local object to remote, then moves remote's branch ref
// to the local giver hash (refusing a non-fast-forward move unless force
// is set, and refusing to push to the remote's checked-out branch), and
// finally updates the local remote-tracking ref to match.
func (r *Repository) push(remoteName, branch string, force bool) error {
	remote, _, err := r.openRemote(remoteName)
	if err != nil {
		return err
	}

	giver, err := r.hash(branch)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownRef, branch)
	}

	if remote.isCheckedOut(branch) {
		return fmt.Errorf("%w: %s", ErrCheckedOutBranch, branch)
	}

	remoteRef := toLocalRef(branch)
	var receiver Hash
	if remote.refExists(remoteRef) {
		receiver, err = remote.readRefFile(remoteRef)
		if err != nil {
			return err
		}
	}

	if !force {
		forced, err := r.isAForceFetch(receiver, giver)
		if err != nil {
			return err
		}
		if forced {
			return fmt.Errorf("%w", ErrNonFastForward)
		}
	}

	if err := copyAllObjects(r, remote); err != nil {
		return err
	}
	if err := remote.writeRefFile(remoteRef, giver); err != nil {
		return err
	}
	return r.writeRefFile(toRemoteRef(remoteName, branch), giver)
}

// pull fetches branch from remote and merges the resulting remote-tracking
// ref into the checked-out branch.
func (r *Repository) pull(remoteName, branch string) (*MergeResult, error) {
	if _, err := r.fetch(remoteName, branch); err != nil {
		return nil, err
	}
	giver, err := r.readRefFile(toRemoteRef(remoteName, branch))
	if err != nil {
		return nil, err
	}
	return r.merge(branch, giver)
}

// clone creates a new repository at dst containing every object reachable
// from src's current branch, an `origin` remote pointing at src, and (if
// not bare) a working copy matching src's tip.
func clone(srcPath, dstPath string, bare bool) (*Repository, error) {
	expanded, err := homedir.Expand(srcPath)
	if err != nil {
		expanded = srcPath
	}
	absSrc, err := filepath.Abs(expanded)
	if err != nil {
		return nil, err
	}

	src, err := openAnyRepositoryAt(absSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRemoteRepo, absSrc)
	}

	branch, err := src.headBranchName()
	if err != nil {
		return nil, err
	}
	tip, err := src.hash(branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRemoteBranch, branch)
	}

	dst, err := initRepository(dstPath, bare)
	if err != nil {
		return nil, err
	}

	if err := copyAllObjects(src, dst); err != nil {
		return nil, err
	}
	if err := dst.AddRemote("origin", absSrc); err != nil {
		return nil, err
	}
	if err := dst.writeRefFile(toLocalRef(branch), tip); err != nil {
		return nil, err
	}
	if err := dst.writeRefFile(toRemoteRef("origin", branch), tip); err != nil {
		return nil, err
	}
	if err := dst.setHeadBranch(branch); err != nil {
		return nil, err
	}

	tipToc, err := dst.commitToc(tip)
	if err != nil {
		return nil, err
	}
	if err := dst.writeIndex(tocToIndex(tipToc)); err != nil {
		return nil, err
	}
	if !bare {
		if err := dst.applyDiff(tocDiff(TOC{}, tipToc, nil)); err != nil {
			return nil, err
		}
	}

	return dst, nil
}
