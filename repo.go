package main

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	vcsName     = "enkelgit"
	metaDirName = "." + vcsName
)

// Repository is an explicit handle on one enkelgit repository. All core
// operations are methods on *Repository so that "the remote" can be a
// second, independently-rooted value instead of a process-wide os.Chdir.
type Repository struct {
	// workDir is the working-copy root (equal to metaDir for bare repos).
	workDir string
	// metaDir is where HEAD/config/index/objects/refs live: workDir/.enkelgit
	// for a normal repository, or workDir itself for a bare one.
	metaDir string
	bare    bool
}

// discoverRepository walks up from startPath looking for a .enkelgit
// directory, or treats startPath itself as a bare repository if it directly
// contains objects/refs/HEAD. It is the entry point every façade command
// uses to build a *Repository from the process's working directory.
func discoverRepository(startPath string) (*Repository, error) {
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotARepository, err)
	}

	if isBareLayout(abs) {
		return openBareAt(abs)
	}

	cur := abs
	for {
		meta := filepath.Join(cur, metaDirName)
		if info, err := os.Stat(meta); err == nil && info.IsDir() {
			return openRepositoryAt(cur)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, startPath)
		}
		cur = parent
	}
}

// openRepositoryAt opens a non-bare repository whose working copy root is
// exactly root (root/.enkelgit); a root without it but with the bare layout
// is opened as a bare repository instead. Used both for the local
// repository and, with a different root, for "the remote" — an explicit
// handle instead of a Chdir.
func openRepositoryAt(root string) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	meta := filepath.Join(abs, metaDirName)
	if info, err := os.Stat(meta); err != nil || !info.IsDir() {
		if isBareLayout(abs) {
			return openBareAt(abs)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, root)
	}

	return &Repository{workDir: abs, metaDir: meta, bare: false}, nil
}

// openBareAt opens a bare repository rooted directly at root.
func openBareAt(root string) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if !isBareLayout(abs) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, root)
	}
	return &Repository{workDir: abs, metaDir: abs, bare: true}, nil
}

// openAnyRepositoryAt opens either a bare or non-bare repository located
// exactly at path (no upward search), used to resolve remote paths.
func openAnyRepositoryAt(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if isBareLayout(abs) {
		return openBareAt(abs)
	}
	return openRepositoryAt(abs)
}

// isBareLayout reports whether path looks like a bare repository root: it
// directly contains objects/, refs/, and HEAD, with no .enkelgit wrapper.
func isBareLayout(path string) bool {
	if info, err := os.Stat(filepath.Join(path, metaDirName)); err == nil && info.IsDir() {
		return false // has a non-bare wrapper, so it is not bare
	}
	for _, required := range []string{"objects", "refs", "HEAD"} {
		if _, err := os.Stat(filepath.Join(path, required)); err != nil {
			return false
		}
	}
	return true
}

// initRepository creates a new repository at root: a working copy with
// .enkelgit/ when bare is false, or the bare layout directly at root
// otherwise. It is an error to re-initialize an existing repository.
func initRepository(root string, bare bool) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	meta := abs
	if !bare {
		meta = filepath.Join(abs, metaDirName)
	}
	if _, err := os.Stat(filepath.Join(meta, "HEAD")); err == nil {
		return nil, fmt.Errorf("%w: repository already exists at %s", ErrUnsupported, abs)
	}

	dirs := []string{
		meta,
		filepath.Join(meta, "objects"),
		filepath.Join(meta, "refs"),
		filepath.Join(meta, "refs", "heads"),
		filepath.Join(meta, "refs", "remotes"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(filepath.Join(meta, "HEAD"), []byte("ref: refs/heads/master\n"), 0644); err != nil {
		return nil, fmt.Errorf("error creating HEAD file: %w", err)
	}

	if err := os.WriteFile(filepath.Join(meta, "index"), []byte("\n"), 0644); err != nil {
		return nil, fmt.Errorf("error creating index file: %w", err)
	}

	cfg := newConfig()
	cfg.SetBool("core", "", "bare", bare)
	if err := writeConfigFile(filepath.Join(meta, "config"), cfg); err != nil {
		return nil, fmt.Errorf("error creating config file: %w", err)
	}

	return &Repository{workDir: abs, metaDir: meta, bare: bare}, nil
}

// IsBare reports whether the repository has no working copy.
func (r *Repository) IsBare() bool { return r.bare }

// WorkDir returns the working-copy root (== MetaDir for bare repositories).
func (r *Repository) WorkDir() string { return r.workDir }

// MetaDir returns the directory holding HEAD/config/index/objects/refs.
func (r *Repository) MetaDir() string { return r.metaDir }

func (r *Repository) path(elem ...string) string {
	return filepath.Join(append([]string{r.metaDir}, elem...)...)
}

func (r *Repository) objectsDir() string       { return r.path("objects") }
func (r *Repository) refsHeadsDir() string     { return r.path("refs", "heads") }
func (r *Repository) refsRemotesDir() string   { return r.path("refs", "remotes") }
func (r *Repository) headPath() string         { return r.path("HEAD") }
func (r *Repository) indexPath() string        { return r.path("index") }
func (r *Repository) configPath() string       { return r.path("config") }
func (r *Repository) mergeHeadPath() string    { return r.path("MERGE_HEAD") }
func (r *Repository) mergeMsgPath() string      { return r.path("MERGE_MSG") }
func (r *Repository) fetchHeadPath() string    { return r.path("FETCH_HEAD") }

// assertNotBare returns ErrBareRepository if the repository has no working
// copy; façade commands that touch the working tree call this first.
func (r *Repository) assertNotBare() error {
	if r.bare {
		return fmt.Errorf("%w", ErrBareRepository)
	}
	return nil
}

// workingPath resolves a repository-relative path to an absolute path on
// disk inside the working copy.
func (r *Repository) workingPath(relPath string) string {
	return filepath.Join(r.workDir, relPath)
}
