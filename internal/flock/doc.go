// Package flock provides cross-platform file locking for KEEL's state
// files. Two keel processes in the same repository must not interleave
// writes to sessions.json, backups.json, or stashes.json; the writer takes
// an exclusive, non-blocking lock for the duration of the write.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - another keel process is writing
//	}
//	defer flock.Unlock(file.Fd())
package flock
