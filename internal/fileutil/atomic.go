// Package fileutil provides the crash-safe write primitive the keystore
// registry uses to persist a Store document: a reader must never observe a
// half-written "{id}.json" file, whether it crashes mid-write or reads
// concurrently with a Flush.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// WriteAtomic writes data to path atomically with the provided permissions,
// so a concurrent reader of a persisted Store document (or a process that
// crashes mid-write) only ever sees the old complete document or the new
// one, never a partial write. It writes to a temp file in the same
// directory, fsyncs, then renames.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// The sibling temp file lives in the same directory as the target so the
	// later rename is on the same filesystem and therefore atomic.
	tmpFile, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	// The rename is what makes the write atomic from a reader's point of
	// view: it either hasn't happened, in which case the old Store document
	// (or nothing) is still at path, or it has, in which case the whole new
	// document is.
	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: path is validated by caller, not from user input
		return fmt.Errorf("renaming temp file: %w", err)
	}

	// Best-effort directory fsync: without it, a crash right after the
	// rename can leave the directory entry pointing at the old inode on some
	// filesystems even though the rename itself succeeded.
	if dirFile, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from validated path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}
