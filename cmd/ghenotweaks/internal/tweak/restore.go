// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tweak

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/backup"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/editor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/mutation"
)

var (
	// ErrNoBackupIndex is returned when the Service was built without Backups.
	ErrNoBackupIndex = errors.New("backup index not configured")

	// ErrNoBackups is returned when restoring "latest" and none exist.
	ErrNoBackups = errors.New("no backups")
)

// ManagedFile is a file the catalog edits, by short name.
type ManagedFile struct {
	Name      string
	Path      string
	Propagate []string
}

// ManagedFiles returns the sysctl, grub and fstab entries, sorted by name.
func (s *Service) ManagedFiles() []ManagedFile {
	return []ManagedFile{
		{Name: "fstab", Path: s.files.Fstab},
		{Name: "grub", Path: s.files.Grub, Propagate: GrubPropagate},
		{Name: "sysctl", Path: s.files.Sysctl, Propagate: SysctlPropagate},
	}
}

// ResolveFile maps a short name ("sysctl", "grub", "fstab") or a managed
// path to its ManagedFile.
func (s *Service) ResolveFile(nameOrPath string) (ManagedFile, error) {
	for _, f := range s.ManagedFiles() {
		if nameOrPath == f.Name || filepath.Clean(nameOrPath) == filepath.Clean(f.Path) {
			return f, nil
		}
	}
	return ManagedFile{}, &faults.ValidationError{
		Key:    "file",
		Value:  nameOrPath,
		Reason: "expected sysctl, grub, fstab or one of their paths",
	}
}

// ListBackups returns the backups of a managed file, newest first.
func (s *Service) ListBackups(nameOrPath string) (ManagedFile, []backup.Backup, error) {
	f, err := s.ResolveFile(nameOrPath)
	if err != nil {
		return ManagedFile{}, nil, err
	}
	if s.backups == nil {
		return f, nil, ErrNoBackupIndex
	}
	list, err := s.backups.List(f.Path)
	return f, list, err
}

// Restore replaces a managed file with the content of one of its backups.
//
// # Description
//
// ref is a backup file name or full path, or "latest". The restore is an
// ordinary safe-apply: the current content is diffed, confirmed and backed
// up before being replaced, and the file's propagation command runs
// afterwards.
func (s *Service) Restore(ctx context.Context, nameOrPath, ref string, opts RunOptions) mutation.Outcome {
	f, err := s.ResolveFile(nameOrPath)
	if err != nil {
		return failedOutcome(nameOrPath, editor.ContentReplacement{}, err)
	}
	if s.backups == nil {
		return failedOutcome(f.Path, editor.ContentReplacement{}, ErrNoBackupIndex)
	}

	b, err := s.findBackup(f.Path, ref)
	if err != nil {
		return failedOutcome(f.Path, editor.ContentReplacement{}, err)
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return failedOutcome(f.Path, editor.ContentReplacement{}, &faults.IOError{Op: "read", Path: b.Path, Err: err})
	}

	ed := editor.ContentReplacement{
		Content: string(data),
		Label:   fmt.Sprintf("restore %s", filepath.Base(b.Path)),
	}
	return s.orch.Apply(ctx, f.Path, ed, mutation.ApplyOptions{
		Propagate: f.Propagate,
		DryRun:    opts.DryRun,
		Preface:   []string{fmt.Sprintf("Backup taken %s", b.CreatedAt.Format("2006-01-02 15:04:05"))},
	})
}

func (s *Service) findBackup(path, ref string) (backup.Backup, error) {
	if ref != "" && ref != "latest" {
		return s.backups.Find(path, ref)
	}
	list, err := s.backups.List(path)
	if err != nil {
		return backup.Backup{}, err
	}
	if len(list) == 0 {
		return backup.Backup{}, fmt.Errorf("%s: %w", path, ErrNoBackups)
	}
	return list[0], nil
}
