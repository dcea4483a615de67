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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/config"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/backup"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/confirm"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/executor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/mutation"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/tweak"
	"github.com/AleutianAI/ghenotweaks/pkg/logging"
	"github.com/AleutianAI/ghenotweaks/pkg/ux"
)

// ErrNotRoot is returned when a mutating command runs without root and the
// configuration requires it.
var ErrNotRoot = errors.New("this command must run as root (try sudo), or pass --dry-run")

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath     string
	assumeYes      bool
	nonInteractive bool
	dryRun         bool
	plain          bool
	json           bool
	verbose        bool
}

// app holds the state of one CLI invocation.
//
// The constructor hooks (newExecutor, newPrompter, euid) are replaced in
// tests.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	flags  globalFlags

	newExecutor func(timeout time.Duration) executor.Executor
	newPrompter func(opts confirm.Options) confirm.Prompter
	euid        func() int

	cfg      config.GhenoConfig
	logger   *logging.Logger
	prompter confirm.Prompter
	service  *tweak.Service
	report   *reporter

	command string
	started time.Time
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:     in,
		out:    out,
		errOut: errOut,
		newExecutor: func(timeout time.Duration) executor.Executor {
			return executor.NewDefaultExecutor(timeout)
		},
		newPrompter: confirm.New,
		euid:        currentEUID,
		logger:      logging.Nop(),
		report:      newReporter(out, false, false),
		started:     time.Now(),
	}
}

// setup loads the configuration and builds the service graph for cmd.
func (a *app) setup(cmd *cobra.Command) error {
	a.command = cmd.CommandPath()
	a.started = time.Now()
	a.report = newReporter(a.out, a.flags.plain, a.flags.json)

	cfg, source, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if a.flags.verbose {
		level = logging.LevelDebug
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "ghenotweaks",
		Quiet:   !a.flags.verbose,
		Output:  a.errOut,
	})

	notices := ux.NewPrinter(a.errOut, a.flags.plain)
	switch source {
	case config.SourceCreated:
		notices.Muted(fmt.Sprintf("Wrote default configuration to %s", a.configPath()))
	case config.SourceDefaults:
		a.logger.Warn("config file could not be created, using defaults", "path", a.configPath())
		notices.Warning(fmt.Sprintf("Could not create %s, using built-in defaults", a.configPath()))
	}

	if requiresRoot(cmd) && cfg.RequireRoot && !a.flags.dryRun && a.euid() != 0 {
		return ErrNotRoot
	}

	promptOut := a.out
	if a.flags.json {
		promptOut = a.errOut
	}
	a.prompter = a.newPrompter(confirm.Options{
		AssumeYes:      a.flags.assumeYes,
		NonInteractive: a.flags.nonInteractive,
		In:             a.in,
		Out:            promptOut,
	})

	exec := a.newExecutor(executor.EnforceMinTimeout(cfg.Commands.Timeout, executor.MinTimeout))
	backups := backup.NewManager(backup.Config{Root: cfg.Backup.Root})
	orch := mutation.New(backups, exec, a.prompter, mutation.WithLogger(a.logger))

	a.service, err = tweak.NewService(cfg, tweak.Deps{
		Orchestrator: orch,
		Executor:     exec,
		Prompter:     a.prompter,
		Backups:      backups,
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	a.logger.Debug("command started",
		"command", a.command,
		"dry_run", a.flags.dryRun,
		"backup_root", backups.Root(),
	)
	return nil
}

func (a *app) configPath() string {
	if a.flags.configPath == "" {
		return config.DefaultPath
	}
	return a.flags.configPath
}

func (a *app) runOptions() tweak.RunOptions {
	return tweak.RunOptions{DryRun: a.flags.dryRun}
}

// finish writes the collected results.
func (a *app) finish() error {
	a.logger.Debug("command finished",
		"command", a.command,
		"exit_code", a.report.exitCode,
		"duration", time.Since(a.started),
	)
	return a.report.flush(a.command, a.started)
}

// outputError reports an error that stopped the command.
func (a *app) outputError(err error) {
	a.logger.Error("command failed", "command", a.command, "error", err)
	if a.flags.json {
		if encErr := OutputJSON(a.out, CommandResult{
			APIVersion: apiVersion,
			Command:    a.command,
			Timestamp:  time.Now(),
			DurationMs: time.Since(a.started).Milliseconds(),
			Success:    false,
			Error:      err.Error(),
		}); encErr == nil {
			return
		}
	}
	ux.NewPrinter(a.errOut, a.flags.plain).Error(err.Error())
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}
