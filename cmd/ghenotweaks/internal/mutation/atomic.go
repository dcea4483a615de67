// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mutation

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

// renameFunc matches os.Rename. Tests replace it to simulate a crash between
// writing the temp file and replacing the target.
type renameFunc func(oldpath, newpath string) error

// atomicWriteFile replaces path with content.
//
// The content goes to a temp file in the same directory, which is synced,
// given the original mode and owner, then renamed over path. Readers see
// either the old file or the new one. On any error the temp file is removed
// and path is untouched.
func atomicWriteFile(path string, content []byte, mode fs.FileMode, rename renameFunc) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".ghenotweaks-*")
	if err != nil {
		return &faults.IOError{Op: "create temp", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return &faults.IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &faults.IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Chmod(mode.Perm()); err != nil {
		tmp.Close()
		return &faults.IOError{Op: "chmod", Path: tmpPath, Err: err}
	}
	if err := preserveOwner(tmp, path); err != nil {
		tmp.Close()
		return &faults.IOError{Op: "chown", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &faults.IOError{Op: "close", Path: tmpPath, Err: err}
	}

	if err := rename(tmpPath, path); err != nil {
		return &faults.IOError{Op: "rename", Path: path, Err: err}
	}
	success = true

	// The new content is in place; a failed directory sync only weakens
	// durability across power loss.
	_ = syncDir(dir)
	return nil
}
