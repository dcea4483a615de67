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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/backup"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/tweak"
	"github.com/AleutianAI/ghenotweaks/pkg/ux"
)

// backupList is the `backups list` result for one managed file.
type backupList struct {
	File    string          `json:"file"`
	Path    string          `json:"path"`
	Backups []backup.Backup `json:"backups"`
}

func newBackupsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List and restore configuration backups",
	}

	list := &cobra.Command{
		Use:   "list [file]",
		Short: "List the backups of sysctl, grub and fstab, newest first",
		Long: `Lists backups of one managed file (sysctl, grub, fstab or its path), or
of all of them when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []tweak.ManagedFile
			if len(args) == 1 {
				f, err := a.service.ResolveFile(args[0])
				if err != nil {
					return err
				}
				files = append(files, f)
			} else {
				files = a.service.ManagedFiles()
			}
			for _, f := range files {
				_, backups, err := a.service.ListBackups(f.Path)
				if err != nil {
					return err
				}
				a.report.data(backupList{File: f.Name, Path: f.Path, Backups: backups}, func(p *ux.Printer) {
					renderBackups(p, f, backups)
				})
			}
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <file> [backup]",
		Short: "Restore a managed file from a backup",
		Long: `Replaces a managed file with one of its backups. backup is a name from
"backups list" or "latest" (the default).

The restore is shown as a diff and confirmed like any other edit. The
current content is backed up first, and the file's reload command runs
afterwards.`,
		Example: `  ghenotweaks backups restore grub
  ghenotweaks backups restore sysctl sysctl.conf_20250101_120000.bak`,
		Args:        cobra.RangeArgs(1, 2),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "latest"
			if len(args) == 2 {
				ref = args[1]
			}
			a.report.outcome(a.service.Restore(cmd.Context(), args[0], ref, a.runOptions()))
			return nil
		},
	}

	cmd.AddCommand(list, restore)
	return cmd
}

func renderBackups(p *ux.Printer, f tweak.ManagedFile, backups []backup.Backup) {
	if len(backups) == 0 {
		p.Info(fmt.Sprintf("No backups of %s", f.Path))
		return
	}
	p.Title(fmt.Sprintf("Backups of %s", f.Path))
	for _, b := range backups {
		p.FileStatus(b.Path, ux.IconBullet, fmt.Sprintf("%s, %d bytes", b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size))
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the ghenotweaks configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to encode the config %w", err)
			}
			text := string(data)
			a.report.data(configView{Path: a.configPath(), YAML: text}, func(p *ux.Printer) {
				p.Muted("# " + a.configPath())
				fmt.Fprint(p.Writer(), text)
				if !strings.HasSuffix(text, "\n") {
					fmt.Fprintln(p.Writer())
				}
			})
			return nil
		},
	})
	return cmd
}

type configView struct {
	Path string `json:"path"`
	YAML string `json:"yaml"`
}
