// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tweak is the catalog of system optimizations.
//
// File tweaks (sysctl, GRUB, fstab, restore) go through the mutation
// Orchestrator and return a mutation.Outcome. Command-only tweaks (systemd,
// APT, ZRAM) ask through the Prompter, run through the Executor and return
// an ActionResult.
package tweak

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/config"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/backup"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/executor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/mutation"
	"github.com/AleutianAI/ghenotweaks/pkg/logging"
)

// ErrMissingDependency is returned by NewService when a required
// dependency is nil.
var ErrMissingDependency = errors.New("missing dependency")

// Prompter is the part of confirm.Prompter the catalog needs.
type Prompter interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// BackupIndex looks up existing backups.
type BackupIndex interface {
	List(path string) ([]backup.Backup, error)
	Find(path, ref string) (backup.Backup, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Orchestrator *mutation.Orchestrator
	Executor     executor.Executor
	Prompter     Prompter
	Backups      BackupIndex
	Logger       *logging.Logger
}

// RunOptions apply to every tweak.
type RunOptions struct {
	// DryRun reports what would change without writing files or running
	// mutating commands. Read-only checks still run.
	DryRun bool
}

// Service runs tweaks against the files and targets in a GhenoConfig.
//
// # Thread Safety
//
// Service holds no mutable state; concurrency follows its dependencies.
type Service struct {
	files  config.FilesConfig
	tweaks config.TweaksConfig

	orch     *mutation.Orchestrator
	exec     executor.Executor
	prompter Prompter
	backups  BackupIndex
	logger   *logging.Logger
}

// NewService creates a Service.
func NewService(cfg config.GhenoConfig, deps Deps) (*Service, error) {
	switch {
	case deps.Orchestrator == nil:
		return nil, fmt.Errorf("%w: orchestrator", ErrMissingDependency)
	case deps.Executor == nil:
		return nil, fmt.Errorf("%w: executor", ErrMissingDependency)
	case deps.Prompter == nil:
		return nil, fmt.Errorf("%w: prompter", ErrMissingDependency)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		files:    cfg.Files,
		tweaks:   cfg.Tweaks,
		orch:     deps.Orchestrator,
		exec:     deps.Executor,
		prompter: deps.Prompter,
		backups:  deps.Backups,
		logger:   logger,
	}, nil
}

// Files returns the managed file paths.
func (s *Service) Files() config.FilesConfig { return s.files }

// Tweaks returns the configured targets.
func (s *Service) Tweaks() config.TweaksConfig { return s.tweaks }
