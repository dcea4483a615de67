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
	"strconv"
	"strings"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/editor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/mutation"
	"github.com/AleutianAI/ghenotweaks/pkg/validation"
)

var (
	// SysctlPropagate reloads every sysctl configuration file.
	SysctlPropagate = []string{"sysctl", "--system"}

	// GrubPropagate regenerates grub.cfg.
	GrubPropagate = []string{"update-grub"}
)

const (
	ParamSwappiness       = "vm.swappiness"
	ParamVFSCachePressure = "vm.vfs_cache_pressure"
)

// Swappiness sets vm.swappiness to the configured value.
func (s *Service) Swappiness(ctx context.Context, opts RunOptions) mutation.Outcome {
	return s.Sysctl(ctx, ParamSwappiness, strconv.Itoa(s.tweaks.Swappiness), opts)
}

// VFSCachePressure sets vm.vfs_cache_pressure to the configured value.
func (s *Service) VFSCachePressure(ctx context.Context, opts RunOptions) mutation.Outcome {
	return s.Sysctl(ctx, ParamVFSCachePressure, strconv.Itoa(s.tweaks.VFSCachePressure), opts)
}

// Sysctl persists param=value in the sysctl file and reloads it.
//
// # Description
//
// The live value is read with `sysctl -n param` and shown in the prompt.
// If it cannot be read the tweak fails without touching the file, since
// an unknown parameter would be rejected by `sysctl --system` anyway.
func (s *Service) Sysctl(ctx context.Context, param, value string, opts RunOptions) mutation.Outcome {
	ed := editor.KeyValueUpdate{Key: param, Value: value}
	if err := validation.ValidateSysctlParam(param); err != nil {
		return failedOutcome(s.files.Sysctl, ed, &faults.ValidationError{
			Path: s.files.Sysctl, Key: "parameter", Value: param, Reason: err.Error(),
		})
	}

	current, err := s.readSysctl(ctx, param)
	if err != nil {
		return failedOutcome(s.files.Sysctl, ed, fmt.Errorf("read current value of %s: %w", param, err))
	}

	return s.orch.Apply(ctx, s.files.Sysctl, ed, mutation.ApplyOptions{
		Propagate: SysctlPropagate,
		DryRun:    opts.DryRun,
		Preface: []string{
			fmt.Sprintf("Current value of %s: %s", param, current),
			fmt.Sprintf("Suggested value: %s", value),
		},
	})
}

// CurrentSysctl returns the live value of param.
func (s *Service) CurrentSysctl(ctx context.Context, param string) (string, error) {
	return s.readSysctl(ctx, param)
}

func (s *Service) readSysctl(ctx context.Context, param string) (string, error) {
	res, err := s.exec.Execute(ctx, []string{"sysctl", "-n", param}, true)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// GrubChoice selects the GRUB edits to make.
type GrubChoice struct {
	// Timeout is the operator's value for the timeout key, checked to be
	// digits only. Empty uses the configured timeout.
	Timeout string

	// SkipTimeout leaves the timeout key alone.
	SkipTimeout bool

	// KeepCmdline leaves the kernel command line alone.
	KeepCmdline bool
}

// Grub shortens the boot menu timeout and removes the configured tokens
// from the kernel command line, then runs update-grub. The selected edits
// share one confirmation, one backup and one write.
//
// # Description
//
// An invalid choice.Timeout fails with a *faults.ValidationError before
// anything is read or confirmed. When both edits are deselected the
// outcome is StatusSkippedByUser.
func (s *Service) Grub(ctx context.Context, choice GrubChoice, opts RunOptions) mutation.Outcome {
	g := s.tweaks.Grub

	var editors []editor.Editor
	if !choice.SkipTimeout {
		timeout := choice.Timeout
		if timeout == "" {
			timeout = strconv.Itoa(g.Timeout)
		}
		numeric := editor.NumericUpdate{Key: g.TimeoutKey, Value: timeout}
		if _, err := editor.CanonicalInteger(g.TimeoutKey, timeout); err != nil {
			return failedOutcome(s.files.Grub, numeric, withPath(err, s.files.Grub))
		}
		editors = append(editors, numeric)
	}
	if !choice.KeepCmdline {
		editors = append(editors, editor.QuotedTokenRemoval{Key: g.CmdlineKey, Tokens: g.RemoveTokens})
	}
	ed := editor.NewChain(editors...)

	if len(editors) == 0 {
		return mutation.Outcome{
			Path:        s.files.Grub,
			Editor:      ed.Name(),
			Status:      mutation.StatusSkippedByUser,
			Description: "no GRUB edits selected",
		}
	}

	preface, readErr := s.grubPreface(choice)
	out := s.orch.Apply(ctx, s.files.Grub, ed, mutation.ApplyOptions{
		Propagate: GrubPropagate,
		DryRun:    opts.DryRun,
		Preface:   preface,
	})
	if readErr != nil {
		out.Notes = append([]string{fmt.Sprintf("current GRUB settings unavailable: %v", readErr)}, out.Notes...)
	}
	return out
}

// grubPreface describes the current values of the selected keys.
func (s *Service) grubPreface(choice GrubChoice) ([]string, error) {
	g := s.tweaks.Grub
	data, err := os.ReadFile(s.files.Grub)
	if err != nil {
		return nil, err
	}
	content := string(data)

	var preface []string
	if !choice.SkipTimeout {
		timeout, ok := editor.LookupNumeric(content, g.TimeoutKey)
		if !ok {
			timeout = g.DefaultTimeout
		}
		preface = append(preface, fmt.Sprintf("Current %s: %s seconds", g.TimeoutKey, timeout))
	}
	if !choice.KeepCmdline {
		cmdline, _ := editor.LookupQuoted(content, g.CmdlineKey)
		preface = append(preface, fmt.Sprintf("Current %s: %q", g.CmdlineKey, cmdline))
	}
	return preface, nil
}

// Noatime adds the configured mount option to the fstab rows the user
// accepts. Nothing is remounted.
func (s *Service) Noatime(ctx context.Context, opts RunOptions) mutation.Outcome {
	f := s.tweaks.Fstab
	ed := editor.MountOptionAugmentation{
		Option:          f.Option,
		Equivalents:     f.Equivalents,
		ExcludedFSTypes: f.ExcludedFSTypes,
		ProtectedMounts: f.ProtectedMounts,
	}
	out := s.orch.Apply(ctx, s.files.Fstab, ed, mutation.ApplyOptions{DryRun: opts.DryRun})
	if out.Status == mutation.StatusApplied {
		out.Notes = append(out.Notes, "remount the filesystems or reboot for the new options to take effect")
	}
	return out
}

// withPath fills in the Path of a ValidationError.
func withPath(err error, path string) error {
	var v *faults.ValidationError
	if errors.As(err, &v) && v.Path == "" {
		v.Path = path
	}
	return err
}

func failedOutcome(path string, ed editor.Editor, err error) mutation.Outcome {
	return mutation.Outcome{
		Path:   path,
		Editor: ed.Name(),
		Status: mutation.StatusFailed,
		Err:    err,
	}
}
