// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backup snapshots configuration files before they are modified.
//
// Backups are plain byte copies named <basename>_<YYYYMMDD_HHMMSS>.bak under
// a single root directory. They are never rotated or deleted by this package.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

// DefaultRoot is where backups are stored unless configured otherwise.
const DefaultRoot = "/var/backups/ghenotweaks_ubuntu"

// maxCollisionSuffix bounds the _1, _2, ... search for same-second backups.
const maxCollisionSuffix = 1000

// Manager creates and lists backups.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Two backups of the same
// file taken within the same second must land at different paths.
type Manager interface {
	// Backup copies path into the backup root and verifies the copy.
	Backup(path string) (Backup, error)

	// List returns the backups of path, newest first.
	List(path string) ([]Backup, error)
}

// Backup describes one snapshot.
type Backup struct {
	// SourcePath is the file that was backed up.
	SourcePath string `json:"source_path"`

	// Path is the full path of the backup copy.
	Path string `json:"path"`

	// CreatedAt is the timestamp encoded in the backup name.
	CreatedAt time.Time `json:"created_at"`

	// Size is the size of the copy in bytes.
	Size int64 `json:"size"`

	// Mode is the permission bits copied from the source.
	Mode fs.FileMode `json:"mode"`
}

// Config controls backup naming and location.
//
// # Example
//
//	cfg := Config{
//	    Root:       "/var/backups/ghenotweaks_ubuntu",
//	    TimeFormat: "20060102_150405",
//	    Suffix:     ".bak",
//	}
type Config struct {
	// Root is the directory holding all backups.
	// Default: /var/backups/ghenotweaks_ubuntu
	Root string

	// TimeFormat is the timestamp layout used in names.
	// Default: "20060102_150405"
	TimeFormat string

	// Suffix ends every backup name.
	// Default: ".bak"
	Suffix string

	// DirMode is used when creating Root.
	// Default: 0755
	DirMode fs.FileMode

	// Now returns the current time. Tests inject a fixed clock.
	Now func() time.Time
}

// DefaultConfig returns the standard backup configuration.
func DefaultConfig() Config {
	return Config{
		Root:       DefaultRoot,
		TimeFormat: "20060102_150405",
		Suffix:     ".bak",
		DirMode:    0o755,
		Now:        time.Now,
	}
}

// FileManager implements Manager on the local filesystem.
//
// # Description
//
// Copies the bytes, permission bits and modification time of a file into
// the backup root, then stats the copy and compares its size with the
// source before returning. A backup that cannot be verified is removed and
// reported as an error, so callers can treat a returned Backup as proof
// that the original content is recoverable.
//
// # Thread Safety
//
// FileManager is safe for concurrent use. Destination names are reserved
// with O_EXCL so concurrent backups never overwrite each other.
//
// # Example
//
//	mgr := backup.NewManager(backup.DefaultConfig())
//	b, err := mgr.Backup("/etc/sysctl.conf")
//	if err != nil {
//	    return err
//	}
//	fmt.Println("backed up to", b.Path)
type FileManager struct {
	config Config
}

// NewManager creates a FileManager, filling zero fields from DefaultConfig.
func NewManager(config Config) *FileManager {
	defaults := DefaultConfig()
	if config.Root == "" {
		config.Root = defaults.Root
	}
	if config.TimeFormat == "" {
		config.TimeFormat = defaults.TimeFormat
	}
	if config.Suffix == "" {
		config.Suffix = defaults.Suffix
	}
	if config.DirMode == 0 {
		config.DirMode = defaults.DirMode
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	return &FileManager{config: config}
}

// Root returns the backup root directory.
func (m *FileManager) Root() string {
	return m.config.Root
}

// Backup snapshots path.
//
// # Inputs
//
//   - path: Regular file to copy. Must exist and be readable.
//
// # Outputs
//
//   - Backup: Record of the verified copy.
//   - error: *faults.NotFoundError if path is absent, *faults.IOError for
//     any other failure. No retry is attempted.
func (m *FileManager) Backup(path string) (Backup, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Backup{}, &faults.NotFoundError{Path: path, Err: err}
		}
		return Backup{}, &faults.IOError{Op: "stat", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return Backup{}, &faults.IOError{Op: "backup", Path: path, Err: fmt.Errorf("not a regular file")}
	}

	if err := os.MkdirAll(m.config.Root, m.config.DirMode); err != nil {
		return Backup{}, &faults.IOError{Op: "mkdir", Path: m.config.Root, Err: err}
	}

	createdAt := m.config.Now().Truncate(time.Second).Local()
	dst, out, err := m.reserve(path, createdAt)
	if err != nil {
		return Backup{}, err
	}

	size, err := copyInto(out, path, info)
	if err != nil {
		os.Remove(dst)
		return Backup{}, err
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(dst)
		return Backup{}, &faults.IOError{Op: "chtimes", Path: dst, Err: err}
	}

	// Verify the copy landed with the expected size.
	copied, err := os.Stat(dst)
	if err != nil {
		os.Remove(dst)
		return Backup{}, &faults.IOError{Op: "verify", Path: dst, Err: err}
	}
	if copied.Size() != info.Size() || copied.Size() != size {
		os.Remove(dst)
		return Backup{}, &faults.IOError{
			Op:   "verify",
			Path: dst,
			Err:  fmt.Errorf("size mismatch: source %d bytes, backup %d bytes", info.Size(), copied.Size()),
		}
	}

	return Backup{
		SourcePath: path,
		Path:       dst,
		CreatedAt:  createdAt,
		Size:       copied.Size(),
		Mode:       info.Mode().Perm(),
	}, nil
}

// List returns the backups of path, newest first.
//
// Names that do not parse are ignored. A missing root yields no backups.
func (m *FileManager) List(path string) ([]Backup, error) {
	entries, err := os.ReadDir(m.config.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &faults.IOError{Op: "list", Path: m.config.Root, Err: err}
	}

	prefix := filepath.Base(path) + "_"
	var backups []Backup
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, m.config.Suffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), m.config.Suffix)
		createdAt, seq, ok := m.parseStamp(stamp)
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			SourcePath: path,
			Path:       filepath.Join(m.config.Root, name),
			CreatedAt:  createdAt.Add(time.Duration(seq)),
			Size:       info.Size(),
			Mode:       info.Mode().Perm(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	for i := range backups {
		backups[i].CreatedAt = backups[i].CreatedAt.Truncate(time.Second)
	}
	return backups, nil
}

// Find returns the backup of path whose file name or full path equals ref.
func (m *FileManager) Find(path, ref string) (Backup, error) {
	backups, err := m.List(path)
	if err != nil {
		return Backup{}, err
	}
	for _, b := range backups {
		if b.Path == ref || filepath.Base(b.Path) == ref {
			return b, nil
		}
	}
	return Backup{}, &faults.NotFoundError{Path: filepath.Join(m.config.Root, filepath.Base(ref)), Err: fs.ErrNotExist}
}

// reserve creates the destination file exclusively, adding _1, _2, ... on
// same-second collisions.
func (m *FileManager) reserve(path string, createdAt time.Time) (string, *os.File, error) {
	base := filepath.Base(path) + "_" + createdAt.Format(m.config.TimeFormat)
	for i := 0; i < maxCollisionSuffix; i++ {
		name := base
		if i > 0 {
			name += "_" + strconv.Itoa(i)
		}
		dst := filepath.Join(m.config.Root, name+m.config.Suffix)

		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return dst, f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", nil, &faults.IOError{Op: "create", Path: dst, Err: err}
		}
	}
	return "", nil, &faults.IOError{
		Op:   "create",
		Path: filepath.Join(m.config.Root, base+m.config.Suffix),
		Err:  fmt.Errorf("too many backups within one second"),
	}
}

// parseStamp parses "<timestamp>" or "<timestamp>_<n>".
func (m *FileManager) parseStamp(stamp string) (time.Time, int, bool) {
	if t, err := time.ParseInLocation(m.config.TimeFormat, stamp, time.Local); err == nil {
		return t, 0, true
	}
	idx := strings.LastIndex(stamp, "_")
	if idx <= 0 {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(stamp[idx+1:])
	if err != nil || seq <= 0 {
		return time.Time{}, 0, false
	}
	t, err := time.ParseInLocation(m.config.TimeFormat, stamp[:idx], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return t, seq, true
}

// copyInto copies src into out, syncs, applies the source permission bits
// and closes out.
func copyInto(out *os.File, src string, info fs.FileInfo) (int64, error) {
	dst := out.Name()

	in, err := os.Open(src)
	if err != nil {
		out.Close()
		return 0, &faults.IOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, &faults.IOError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return n, &faults.IOError{Op: "sync", Path: dst, Err: err}
	}
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		out.Close()
		return n, &faults.IOError{Op: "chmod", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return n, &faults.IOError{Op: "close", Path: dst, Err: err}
	}
	return n, nil
}

// Compile-time interface check
var _ Manager = (*FileManager)(nil)
