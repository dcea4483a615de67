// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/confirm"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/tweak"
)

// errMenuNeedsTerminal is returned when the menu is opened with --yes or
// --non-interactive.
var errMenuNeedsTerminal = errors.New("the menu needs an interactive terminal; run a subcommand instead (see --help)")

const menuPrompt = "GhenoTweaks - Ubuntu optimization menu"

type menuEntry struct {
	label string
	run   func(ctx context.Context) error
}

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "menu",
		Short:       "Pick optimizations from an interactive menu",
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMenu(cmd.Context())
		},
	}
}

// menuEntries lists the tweaks in menu order, 1 through 7.
func (a *app) menuEntries() []menuEntry {
	opts := a.runOptions()
	t := a.service.Tweaks()
	return []menuEntry{
		{
			label: fmt.Sprintf("Optimize kernel swappiness (%s=%d)", tweak.ParamSwappiness, t.Swappiness),
			run: func(ctx context.Context) error {
				a.report.outcome(a.service.Swappiness(ctx, opts))
				return nil
			},
		},
		{
			label: fmt.Sprintf("Optimize VFS cache pressure (%s=%d)", tweak.ParamVFSCachePressure, t.VFSCachePressure),
			run: func(ctx context.Context) error {
				a.report.outcome(a.service.VFSCachePressure(ctx, opts))
				return nil
			},
		},
		{
			label: "Disable unneeded systemd services",
			run: func(ctx context.Context) error {
				return a.disableService(ctx, "")
			},
		},
		{
			label: "Optimize GRUB settings (faster boot)",
			run: func(ctx context.Context) error {
				choice, err := a.askGrubChoice(ctx)
				if errors.Is(err, confirm.ErrCancelled) {
					a.report.info("Cancelled.")
					return nil
				}
				if err != nil {
					return err
				}
				a.report.outcome(a.service.Grub(ctx, choice, opts))
				return nil
			},
		},
		{
			label: fmt.Sprintf("Enable %s in fstab (fewer disk writes)", t.Fstab.Option),
			run: func(ctx context.Context) error {
				a.report.outcome(a.service.Noatime(ctx, opts))
				return nil
			},
		},
		{
			label: "Clean up APT packages and caches",
			run: func(ctx context.Context) error {
				a.report.action(a.service.CleanupAPT(ctx, opts))
				return nil
			},
		},
		{
			label: "Configure ZRAM (compressed RAM swap)",
			run: func(ctx context.Context) error {
				a.report.action(a.service.EnableZram(ctx, opts))
				return nil
			},
		},
	}
}

// runMenu shows the menu until the user picks Exit or cancels.
func (a *app) runMenu(ctx context.Context) error {
	if !a.prompter.IsInteractive() {
		return errMenuNeedsTerminal
	}

	entries := a.menuEntries()
	options := make([]string, 0, len(entries)+1)
	for i, e := range entries {
		options = append(options, fmt.Sprintf("%d. %s", i+1, e.label))
	}
	options = append(options, "0. Exit")

	a.report.info(fmt.Sprintf("Backups are saved in %s", a.cfg.Backup.Root))
	for {
		choice, err := a.prompter.Select(ctx, menuPrompt, options)
		if errors.Is(err, confirm.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == len(entries) {
			a.report.info("Leaving GhenoTweaks.")
			return nil
		}

		a.logger.Debug("menu selection", "option", choice+1)
		if err := entries[choice].run(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			a.report.fail(err)
		}
	}
}
