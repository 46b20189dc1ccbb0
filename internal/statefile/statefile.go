// Package statefile implements the storage layer for KEEL's repository-scoped
// state (workflow sessions, backup history, stash metadata). Files are JSON
// documents under .git/keel, written atomically so a crash mid-write never
// leaves truncated state behind.
//
// Import rules:
//   - CAN import: internal/constants, internal/errors, std lib
//   - MUST NOT import: engine packages
package statefile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/flock"
)

// PathIn returns the path of a named state file inside the given .git
// directory (e.g. PathIn("/repo/.git", "sessions.json")).
func PathIn(gitDir, name string) string {
	return filepath.Join(gitDir, constants.GitStateDir, name)
}

// Load reads a JSON state file into out. A missing file is not an error:
// Load returns found=false and leaves out untouched.
func Load(path string, out any) (found bool, err error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is derived from the repository's git dir
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "reading state file")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, errors.Wrapf(err, "parsing state file %s", filepath.Base(path))
	}
	return true, nil
}

// Save writes a JSON state file atomically (temp file + rename) with
// restrictive permissions. An exclusive lock on a sibling .lock file keeps
// two keel processes from interleaving writes to the same state file.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding state file")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPerm); err != nil {
		return errors.Wrap(err, "creating state directory")
	}

	unlock, err := acquireLock(path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return errors.Wrap(err, "creating temp state file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp state file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp state file")
	}
	if err := os.Chmod(tmpName, constants.FilePerm); err != nil {
		return errors.Wrap(err, "setting state file permissions")
	}

	return errors.Wrap(os.Rename(tmpName, path), "replacing state file")
}

// acquireLock takes an exclusive non-blocking lock on the given lock file
// and returns a function that releases it. A held lock means another keel
// process is writing the same state file right now.
func acquireLock(lockPath string) (func(), error) {
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, constants.FilePerm) //#nosec G304 -- path is derived from the repository's git dir
	if err != nil {
		return nil, errors.Wrap(err, "opening state lock file")
	}
	if err := flock.Exclusive(f.Fd()); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "state file is locked by another keel process")
	}
	return func() {
		_ = flock.Unlock(f.Fd())
		_ = f.Close()
	}, nil
}
