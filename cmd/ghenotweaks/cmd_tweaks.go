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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/confirm"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/tweak"
	"github.com/AleutianAI/ghenotweaks/pkg/ux"
)

// errNoUnit is returned by `service disable` without a unit when nobody
// can pick one.
var errNoUnit = errors.New("name the systemd unit to disable")

// =============================================================================
// sysctl
// =============================================================================

func newSysctlCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sysctl",
		Short: "Persist kernel parameters in the sysctl configuration",
	}

	swappiness := &cobra.Command{
		Use:   "swappiness",
		Short: "Set vm.swappiness to the configured value",
		Long: `Controls how eagerly the kernel moves memory pages to swap.

Lower values keep data in RAM longer before swap is used. 10 suits most
desktops with more than 4GB of RAM.`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.report.outcome(a.service.Swappiness(cmd.Context(), a.runOptions()))
			return nil
		},
	}

	vfs := &cobra.Command{
		Use:   "vfs-cache-pressure",
		Short: "Set vm.vfs_cache_pressure to the configured value",
		Long: `Controls how aggressively the kernel reclaims the dentry and inode caches.

A lower value such as 50 keeps more of these caches, which can speed up
file operations.`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.report.outcome(a.service.VFSCachePressure(cmd.Context(), a.runOptions()))
			return nil
		},
	}

	set := &cobra.Command{
		Use:         "set <parameter> <value>",
		Short:       "Persist any sysctl parameter",
		Example:     "  ghenotweaks sysctl set vm.dirty_ratio 15",
		Args:        cobra.ExactArgs(2),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.report.outcome(a.service.Sysctl(cmd.Context(), args[0], args[1], a.runOptions()))
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <parameter>",
		Short: "Show the live value of a sysctl parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := a.service.CurrentSysctl(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.report.data(sysctlValue{Parameter: args[0], Value: value}, func(p *ux.Printer) {
				p.Info(fmt.Sprintf("%s = %s", args[0], value))
			})
			return nil
		},
	}

	cmd.AddCommand(swappiness, vfs, set, get)
	return cmd
}

type sysctlValue struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// =============================================================================
// GRUB and fstab
// =============================================================================

func newGrubCmd(a *app) *cobra.Command {
	var choice tweak.GrubChoice
	cmd := &cobra.Command{
		Use:   "grub",
		Short: "Shorten the boot menu timeout and show kernel messages",
		Long: `Sets GRUB_TIMEOUT and removes the configured tokens (quiet, splash) from
GRUB_CMDLINE_LINUX_DEFAULT in one edit, then runs update-grub.

Use --skip-timeout or --keep-cmdline to make only one of the two changes.
A broken GRUB configuration can stop the system from booting. Review the
diff before accepting it.`,
		Example: `  ghenotweaks grub --timeout 2
  ghenotweaks grub --keep-cmdline`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.report.outcome(a.service.Grub(cmd.Context(), choice, a.runOptions()))
			return nil
		},
	}
	cmd.Flags().StringVar(&choice.Timeout, "timeout", "", "Boot menu timeout in seconds (default from config)")
	cmd.Flags().BoolVar(&choice.SkipTimeout, "skip-timeout", false, "Leave GRUB_TIMEOUT unchanged")
	cmd.Flags().BoolVar(&choice.KeepCmdline, "keep-cmdline", false, "Leave the kernel command line unchanged")
	cmd.MarkFlagsMutuallyExclusive("timeout", "skip-timeout")
	return cmd
}

// askGrubChoice asks about each GRUB edit separately.
func (a *app) askGrubChoice(ctx context.Context) (tweak.GrubChoice, error) {
	g := a.service.Tweaks().Grub
	var choice tweak.GrubChoice

	change, err := a.prompter.Confirm(ctx, fmt.Sprintf("Change %s?", g.TimeoutKey))
	if err != nil {
		return choice, err
	}
	if change {
		choice.Timeout, err = a.prompter.Input(ctx, "New timeout in seconds", strconv.Itoa(g.Timeout))
		if err != nil {
			return choice, err
		}
	} else {
		choice.SkipTimeout = true
	}

	remove, err := a.prompter.Confirm(ctx, fmt.Sprintf("Remove %q from %s?", strings.Join(g.RemoveTokens, " "), g.CmdlineKey))
	if err != nil {
		return choice, err
	}
	choice.KeepCmdline = !remove
	return choice, nil
}

func newFstabCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fstab",
		Short: "Edit mount options in fstab",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "noatime",
		Short: "Add noatime to the mounts you choose",
		Long: `noatime stops the kernel from recording every file access, which cuts
disk writes and can extend SSD life.

Each eligible row is offered separately. Rows that already carry noatime
or relatime, swap rows and the protected mount points are left alone.
Not recommended for servers that rely on access times.`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.report.outcome(a.service.Noatime(cmd.Context(), a.runOptions()))
			return nil
		},
	})
	return cmd
}

// =============================================================================
// systemd, APT, ZRAM
// =============================================================================

func newServiceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Disable systemd services you do not need",
	}

	disable := &cobra.Command{
		Use:   "disable [unit]",
		Short: "Stop a systemd unit and disable it at boot",
		Long: `Stops the unit and disables it at boot with systemctl disable --now.

Without a unit name, pick one of the suggested services. Disabling an
essential service can make the system unstable, so look a service up
before disabling it.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit := ""
			if len(args) == 1 {
				unit = args[0]
			}
			return a.disableService(cmd.Context(), unit)
		},
	}

	suggested := &cobra.Command{
		Use:   "suggested",
		Short: "List services that are often safe to disable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			units := a.service.Tweaks().SuggestedServices
			a.report.data(units, func(p *ux.Printer) {
				for _, u := range units {
					p.Info(u)
				}
			})
			return nil
		},
	}

	cmd.AddCommand(disable, suggested)
	return cmd
}

// disableService disables unit, or lets the user pick one of the
// suggested services when unit is empty.
func (a *app) disableService(ctx context.Context, unit string) error {
	if unit == "" {
		if !a.prompter.IsInteractive() {
			return errNoUnit
		}
		units := a.service.Tweaks().SuggestedServices
		options := append(append([]string(nil), units...), "Cancel")
		choice, err := a.prompter.Select(ctx, "Which service should be disabled?", options)
		if errors.Is(err, confirm.ErrCancelled) || (err == nil && choice == len(units)) {
			a.report.info("Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		unit = units[choice]
	}
	a.report.action(a.service.DisableService(ctx, unit, a.runOptions()))
	return nil
}

func newAptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apt",
		Short: "APT housekeeping",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "cleanup",
		Short:       "Remove unused packages and clear the package cache",
		Long:        `Runs apt autoremove -y and apt clean to free disk space.`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.report.action(a.service.CleanupAPT(cmd.Context(), a.runOptions()))
			return nil
		},
	})
	return cmd
}

func newZramCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zram",
		Short: "Compressed swap in RAM",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Install and enable ZRAM swap",
		Long: `ZRAM creates a compressed block device in RAM and uses it as swap. This
avoids slow disk swap and helps on systems with little memory.

Installs the configured package when it is missing, then enables its
service.`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.report.action(a.service.EnableZram(cmd.Context(), a.runOptions()))
			return nil
		},
	})
	return cmd
}
