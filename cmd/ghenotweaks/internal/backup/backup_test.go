// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backup

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestManager(t *testing.T, now time.Time) (*FileManager, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "backups")
	return NewManager(Config{Root: root, Now: fixedClock(now)}), root
}

func writeSource(t *testing.T, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sysctl.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	require.NoError(t, os.Chmod(path, mode))
	return path
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultRoot, cfg.Root)
	assert.Equal(t, "20060102_150405", cfg.TimeFormat)
	assert.Equal(t, ".bak", cfg.Suffix)
	assert.Equal(t, os.FileMode(0o755), cfg.DirMode)
	assert.NotNil(t, cfg.Now)
}

func TestNewManager_FillsZeroValues(t *testing.T) {
	mgr := NewManager(Config{})
	assert.Equal(t, DefaultRoot, mgr.Root())
	assert.Equal(t, ".bak", mgr.config.Suffix)
	assert.NotNil(t, mgr.config.Now)
}

// =============================================================================
// Backup Tests
// =============================================================================

func TestBackup_CopiesContentAndMetadata(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 45, 0, time.Local)
	mgr, root := newTestManager(t, now)
	src := writeSource(t, "vm.swappiness=60\n", 0o640)

	mtime := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	b, err := mgr.Backup(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "sysctl.conf_20240315_103045.bak"), b.Path)
	assert.Equal(t, src, b.SourcePath)
	assert.Equal(t, int64(len("vm.swappiness=60\n")), b.Size)
	assert.Equal(t, os.FileMode(0o640), b.Mode)
	assert.True(t, b.CreatedAt.Equal(now))

	content, err := os.ReadFile(b.Path)
	require.NoError(t, err)
	assert.Equal(t, "vm.swappiness=60\n", string(content))

	info, err := os.Stat(b.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime), "mtime should be preserved")

	rootInfo, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, rootInfo.IsDir())
}

func TestBackup_SourceUnchanged(t *testing.T) {
	mgr, _ := newTestManager(t, time.Now())
	src := writeSource(t, "a=1\nb=2\n", 0o644)

	_, err := mgr.Backup(src)
	require.NoError(t, err)

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "a=1\nb=2\n", string(content))
}

func TestBackup_MissingSource(t *testing.T) {
	mgr, root := newTestManager(t, time.Now())

	_, err := mgr.Backup(filepath.Join(t.TempDir(), "missing.conf"))
	require.Error(t, err)

	var notFound *faults.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr), "root should not be created for a missing source")
}

func TestBackup_DirectoryRejected(t *testing.T) {
	mgr, _ := newTestManager(t, time.Now())

	_, err := mgr.Backup(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, faults.KindIO, faults.KindOf(err))
}

func TestBackup_RootNotCreatable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	mgr := NewManager(Config{Root: filepath.Join(blocker, "backups")})
	src := writeSource(t, "x=1\n", 0o644)

	_, err := mgr.Backup(src)
	require.Error(t, err)

	var ioErr *faults.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "mkdir", ioErr.Op)
}

func TestBackup_SameSecondNeverCollides(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 45, 0, time.Local)
	mgr, root := newTestManager(t, now)
	src := writeSource(t, "first\n", 0o644)

	first, err := mgr.Backup(src)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("second\n"), 0o644))
	second, err := mgr.Backup(src)
	require.NoError(t, err)

	third, err := mgr.Backup(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "sysctl.conf_20240315_103045.bak"), first.Path)
	assert.Equal(t, filepath.Join(root, "sysctl.conf_20240315_103045_1.bak"), second.Path)
	assert.Equal(t, filepath.Join(root, "sysctl.conf_20240315_103045_2.bak"), third.Path)

	content, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(content), "earlier backup must not be overwritten")
}

func TestBackup_ConcurrentSameSecond(t *testing.T) {
	mgr, _ := newTestManager(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	src := writeSource(t, "x=1\n", 0o644)

	const n = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = make(map[string]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := mgr.Backup(src)
			if assert.NoError(t, err) {
				mu.Lock()
				paths[b.Path] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, paths, n)
}

// =============================================================================
// List / Find Tests
// =============================================================================

func TestList_NewestFirst(t *testing.T) {
	root := filepath.Join(t.TempDir(), "backups")
	src := writeSource(t, "x=1\n", 0o644)

	times := []time.Time{
		time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local),
		time.Date(2024, 1, 3, 8, 0, 0, 0, time.Local),
		time.Date(2024, 1, 2, 8, 0, 0, 0, time.Local),
	}
	for _, ts := range times {
		_, err := NewManager(Config{Root: root, Now: fixedClock(ts)}).Backup(src)
		require.NoError(t, err)
	}
	// Same-second collision sorts after its base.
	_, err := NewManager(Config{Root: root, Now: fixedClock(times[1])}).Backup(src)
	require.NoError(t, err)

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "fstab_20240101_080000.bak"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sysctl.conf_garbage.bak"), []byte("x"), 0o644))

	backups, err := NewManager(Config{Root: root}).List(src)
	require.NoError(t, err)
	require.Len(t, backups, 4)

	assert.Equal(t, "sysctl.conf_20240103_080000_1.bak", filepath.Base(backups[0].Path))
	assert.Equal(t, "sysctl.conf_20240103_080000.bak", filepath.Base(backups[1].Path))
	assert.Equal(t, "sysctl.conf_20240102_080000.bak", filepath.Base(backups[2].Path))
	assert.Equal(t, "sysctl.conf_20240101_080000.bak", filepath.Base(backups[3].Path))
	assert.True(t, backups[0].CreatedAt.Equal(times[1]))
}

func TestList_MissingRoot(t *testing.T) {
	mgr := NewManager(Config{Root: filepath.Join(t.TempDir(), "nope")})
	backups, err := mgr.List("/etc/fstab")
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestFind(t *testing.T) {
	mgr, _ := newTestManager(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local))
	src := writeSource(t, "x=1\n", 0o644)

	b, err := mgr.Backup(src)
	require.NoError(t, err)

	found, err := mgr.Find(src, filepath.Base(b.Path))
	require.NoError(t, err)
	assert.Equal(t, b.Path, found.Path)

	found, err = mgr.Find(src, b.Path)
	require.NoError(t, err)
	assert.Equal(t, b.Path, found.Path)

	_, err = mgr.Find(src, "sysctl.conf_19990101_000000.bak")
	assert.Equal(t, faults.KindNotFound, faults.KindOf(err))
}
