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
	"strings"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/mutation"
	"github.com/AleutianAI/ghenotweaks/pkg/validation"
)

// dpkgInstalled is the status line dpkg -s prints for an installed package.
const dpkgInstalled = "install ok installed"

// =============================================================================
// systemd
// =============================================================================

// DisableService stops a systemd unit and disables it at boot.
//
// # Description
//
// The unit's state is read with `systemctl is-active` (a non-zero exit
// just means "not active"). The question differs for active and inactive
// units; inactive or unknown units can still be disabled if the user
// insists.
func (s *Service) DisableService(ctx context.Context, unit string, opts RunOptions) ActionResult {
	name, err := validation.SanitizeUnitName(unit)
	a := newAction("disable-service", fmt.Sprintf("disable and stop %s", strings.TrimSpace(unit)))
	if err != nil {
		return a.fail(&faults.ValidationError{Key: "service", Value: unit, Reason: err.Error()})
	}
	unit = name

	state, err := s.unitState(ctx, a, unit)
	if err != nil {
		return a.fail(err)
	}
	a.note(fmt.Sprintf("%s is %s", unit, state))

	disable := []string{"systemctl", "disable", "--now", unit}
	if opts.DryRun {
		a.Planned = append(a.Planned, disable)
		return a.finish(mutation.StatusPreviewed)
	}

	var prompt string
	if state == "active" {
		prompt = fmt.Sprintf("Service %s is ACTIVE. Disable and stop it?", unit)
	} else {
		prompt = fmt.Sprintf("Service %s is not active (%s) or does not exist. Try to disable it anyway?", unit, state)
	}
	ok, err := s.prompter.Confirm(ctx, prompt)
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		return a.finish(mutation.StatusSkippedByUser)
	}

	res, err := s.exec.Execute(ctx, disable, true)
	a.record(res)
	if err != nil {
		s.logger.Error("disable service failed", "unit", unit, "error", err)
		return a.fail(err)
	}
	s.logger.Info("service disabled", "unit", unit)
	return a.finish(mutation.StatusApplied)
}

// unitState returns the first line of `systemctl is-active unit`.
func (s *Service) unitState(ctx context.Context, a *action, unit string) (string, error) {
	res, err := s.exec.Execute(ctx, []string{"systemctl", "is-active", unit}, false)
	a.record(res)
	if err != nil {
		return "", err
	}
	state, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	if state == "" {
		state = "unknown"
	}
	return state, nil
}

// =============================================================================
// APT
// =============================================================================

var (
	aptAutoremove = []string{"apt", "autoremove", "-y"}
	aptClean      = []string{"apt", "clean"}
)

// CleanupAPT removes packages that are no longer needed and clears the
// package cache. Both commands run even if the first fails.
func (s *Service) CleanupAPT(ctx context.Context, opts RunOptions) ActionResult {
	a := newAction("apt-cleanup", "apt autoremove and apt clean")
	steps := [][]string{aptAutoremove, aptClean}

	if opts.DryRun {
		a.Planned = append(a.Planned, steps...)
		return a.finish(mutation.StatusPreviewed)
	}

	ok, err := s.prompter.Confirm(ctx, "Remove unused packages and clear the APT cache (apt autoremove, apt clean)?")
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		return a.finish(mutation.StatusSkippedByUser)
	}

	var errs []error
	for _, argv := range steps {
		res, err := s.exec.Execute(ctx, argv, true)
		a.record(res)
		if err != nil {
			s.logger.Error("apt step failed", "command", faults.FormatArgv(argv), "error", err)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("apt step done", "command", faults.FormatArgv(argv), "duration", res.Duration)
	}
	if len(errs) > 0 {
		return a.fail(errors.Join(errs...))
	}
	return a.finish(mutation.StatusApplied)
}

// =============================================================================
// ZRAM
// =============================================================================

// EnableZram installs the ZRAM package if needed and enables its swap
// service.
//
// # Description
//
//  1. `dpkg -s <package>`: installed if stdout says "install ok installed".
//  2. Not installed: ask, then `apt update -y` and `apt install <package> -y`.
//     Declining ends the action.
//  3. `systemctl is-active <service>`: already active and nothing was
//     installed means no change.
//  4. Otherwise `systemctl enable --now <service>`.
func (s *Service) EnableZram(ctx context.Context, opts RunOptions) ActionResult {
	z := s.tweaks.Zram
	a := newAction("zram", fmt.Sprintf("enable %s (%s)", z.Service, z.Package))
	if err := validation.ValidatePackageName(z.Package); err != nil {
		return a.fail(&faults.ValidationError{Key: "package", Value: z.Package, Reason: err.Error()})
	}
	if err := validation.ValidateUnitName(z.Service); err != nil {
		return a.fail(&faults.ValidationError{Key: "service", Value: z.Service, Reason: err.Error()})
	}

	pkg, err := s.exec.Execute(ctx, []string{"dpkg", "-s", z.Package}, false)
	a.record(pkg)
	if err != nil {
		return a.fail(err)
	}
	installed := strings.Contains(pkg.Stdout, dpkgInstalled)

	install := [][]string{
		{"apt", "update", "-y"},
		{"apt", "install", z.Package, "-y"},
	}
	changed := false

	if installed {
		a.note(fmt.Sprintf("%s is already installed", z.Package))
	} else if opts.DryRun {
		a.Planned = append(a.Planned, install...)
	} else {
		ok, err := s.prompter.Confirm(ctx, fmt.Sprintf("%s is not installed. Install it now?", z.Package))
		if err != nil {
			return a.fail(err)
		}
		if !ok {
			a.note(fmt.Sprintf("ZRAM cannot be configured without %s", z.Package))
			return a.finish(mutation.StatusSkippedByUser)
		}
		for _, argv := range install {
			res, err := s.exec.Execute(ctx, argv, true)
			a.record(res)
			if err != nil {
				s.logger.Error("zram install failed", "command", faults.FormatArgv(argv), "error", err)
				return a.fail(err)
			}
		}
		s.logger.Info("package installed", "package", z.Package)
		changed = true
	}

	state, err := s.unitState(ctx, a, z.Service)
	if err != nil {
		return a.fail(err)
	}

	enable := []string{"systemctl", "enable", "--now", z.Service}
	if state == "active" && installed {
		a.note(fmt.Sprintf("%s is already active", z.Service))
		return a.finish(mutation.StatusNoChange)
	}
	if opts.DryRun {
		if state != "active" {
			a.Planned = append(a.Planned, enable)
		}
		return a.finish(mutation.StatusPreviewed)
	}
	if state == "active" {
		a.note(fmt.Sprintf("%s is already active", z.Service))
		return a.finish(statusFor(changed))
	}

	a.note(fmt.Sprintf("%s is %s", z.Service, state))
	res, err := s.exec.Execute(ctx, enable, true)
	a.record(res)
	if err != nil {
		s.logger.Error("zram enable failed", "service", z.Service, "error", err)
		return a.fail(err)
	}
	s.logger.Info("zram enabled", "service", z.Service)
	a.note("edit /etc/default/zramswap to change the ZRAM size; reboot to make sure it is in use")
	return a.finish(mutation.StatusApplied)
}

func statusFor(changed bool) mutation.Status {
	if changed {
		return mutation.StatusApplied
	}
	return mutation.StatusNoChange
}
