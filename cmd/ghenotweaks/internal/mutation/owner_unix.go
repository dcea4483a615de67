//go:build unix

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
	"os"

	"golang.org/x/sys/unix"
)

// preserveOwner gives tmp the owner and group of the file at path.
func preserveOwner(tmp *os.File, path string) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return err
	}
	if err := unix.Fchown(int(tmp.Fd()), int(st.Uid), int(st.Gid)); err != nil {
		// Unprivileged runs cannot chown; the temp file already belongs to
		// the caller, which matches the source in that case.
		if err == unix.EPERM && int(st.Uid) == os.Geteuid() {
			return nil
		}
		return err
	}
	return nil
}

// syncDir flushes the directory entry after a rename.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
