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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/config"
)

// annotationRequiresRoot marks commands that write system files or run
// mutating commands.
const annotationRequiresRoot = "ghenotweaks/requires-root"

func mutating() map[string]string {
	return map[string]string{annotationRequiresRoot: "true"}
}

func requiresRoot(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations[annotationRequiresRoot]
	return ok
}

// newRootCmd builds the command tree for one invocation.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ghenotweaks",
		Short: "Tune Ubuntu memory, boot and disk settings safely",
		Long: `GhenoTweaks applies a small set of performance tweaks to an Ubuntu system.

Every change to a configuration file is shown as a diff and confirmed
before it is written. The previous version is copied to the backup
directory first, the new content replaces the file atomically, and the
matching reload command (sysctl --system, update-grub) runs afterwards.

Run without a subcommand to open the interactive menu.`,
		Annotations:   mutating(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMenu(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.service == nil {
				return nil
			}
			return a.finish()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "configuration file (default "+config.DefaultPath+")")
	pf.BoolVarP(&a.flags.assumeYes, "yes", "y", false, "approve every confirmation")
	pf.BoolVar(&a.flags.nonInteractive, "non-interactive", false, "never prompt, fail when a confirmation is needed")
	pf.BoolVarP(&a.flags.dryRun, "dry-run", "n", false, "show what would change without writing files or running commands")
	pf.BoolVar(&a.flags.plain, "plain", false, "plain output without colors or icons")
	pf.BoolVar(&a.flags.json, "json", false, "print results as JSON")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug messages to stderr")

	root.AddCommand(
		newMenuCmd(a),    // Defined in cmd_menu.go
		newSysctlCmd(a),  // Defined in cmd_tweaks.go
		newGrubCmd(a),    // Defined in cmd_tweaks.go
		newFstabCmd(a),   // Defined in cmd_tweaks.go
		newServiceCmd(a), // Defined in cmd_tweaks.go
		newAptCmd(a),     // Defined in cmd_tweaks.go
		newZramCmd(a),    // Defined in cmd_tweaks.go
		newBackupsCmd(a), // Defined in cmd_backups.go
		newConfigCmd(a),  // Defined in cmd_backups.go
	)
	return root
}
