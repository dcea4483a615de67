// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"
)

// DefaultPath is where the configuration lives unless --config says
// otherwise.
const DefaultPath = "/etc/ghenotweaks/config.yaml"

type GhenoConfig struct {
	// Files: the configuration files this tool edits
	Files FilesConfig `yaml:"files"`

	// Backup: where snapshots go before every write
	Backup BackupConfig `yaml:"backup"`

	// Commands: external command execution
	Commands CommandsConfig `yaml:"commands"`

	// Logging: console level and the audit log directory
	Logging LoggingConfig `yaml:"logging"`

	// RequireRoot refuses to run mutating commands as a normal user
	RequireRoot bool `yaml:"require_root"`

	// Tweaks: target values for each optimization
	Tweaks TweaksConfig `yaml:"tweaks"`
}

type FilesConfig struct {
	Sysctl string `yaml:"sysctl" validate:"required,startswith=/"` // e.g. /etc/sysctl.conf
	Grub   string `yaml:"grub" validate:"required,startswith=/"`   // e.g. /etc/default/grub
	Fstab  string `yaml:"fstab" validate:"required,startswith=/"`  // e.g. /etc/fstab
}

type BackupConfig struct {
	Root string `yaml:"root" validate:"required,startswith=/"` // e.g. /var/backups/ghenotweaks_ubuntu
}

type CommandsConfig struct {
	// Timeout bounds every external command. Minimum 5s.
	Timeout time.Duration `yaml:"timeout" validate:"gte=5s"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"` // empty disables the file log
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
}

type TweaksConfig struct {
	Swappiness       int        `yaml:"swappiness" validate:"gte=0,lte=200"`
	VFSCachePressure int        `yaml:"vfs_cache_pressure" validate:"gte=0"`
	Grub             GrubTweak  `yaml:"grub"`
	Fstab            FstabTweak `yaml:"fstab"`
	Zram             ZramTweak  `yaml:"zram"`

	// SuggestedServices are listed when asking which unit to disable
	SuggestedServices []string `yaml:"suggested_services" validate:"dive,required,excludesall= /"`
}

type GrubTweak struct {
	TimeoutKey     string   `yaml:"timeout_key" validate:"required,excludesall= =#"`
	Timeout        int      `yaml:"timeout" validate:"gte=0"` // e.g. 3, or 0 to skip the menu
	DefaultTimeout string   `yaml:"default_timeout"`          // shown when TimeoutKey is absent
	CmdlineKey     string   `yaml:"cmdline_key" validate:"required,excludesall= =#"`
	RemoveTokens   []string `yaml:"remove_tokens" validate:"min=1,dive,required,excludesall= \""`
}

type FstabTweak struct {
	Option          string   `yaml:"option" validate:"required,excludesall= 0x2C"`
	Equivalents     []string `yaml:"equivalents" validate:"dive,required,excludesall= 0x2C"`
	ProtectedMounts []string `yaml:"protected_mounts" validate:"dive,required,startswith=/"`
	ExcludedFSTypes []string `yaml:"excluded_fstypes" validate:"dive,required"`
}

type ZramTweak struct {
	Package string `yaml:"package" validate:"required"` // e.g. zram-config
	Service string `yaml:"service" validate:"required"` // e.g. zram-swap
}

// DefaultConfig returns the settings the tool ships with.
func DefaultConfig() GhenoConfig {
	return GhenoConfig{
		Files: FilesConfig{
			Sysctl: "/etc/sysctl.conf",
			Grub:   "/etc/default/grub",
			Fstab:  "/etc/fstab",
		},
		Backup: BackupConfig{
			Root: "/var/backups/ghenotweaks_ubuntu",
		},
		Commands: CommandsConfig{
			Timeout: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Dir:   "/var/log/ghenotweaks",
			Level: "info",
		},
		RequireRoot: true,
		Tweaks: TweaksConfig{
			Swappiness:       10,
			VFSCachePressure: 50,
			Grub: GrubTweak{
				TimeoutKey:     "GRUB_TIMEOUT",
				Timeout:        3,
				DefaultTimeout: "10",
				CmdlineKey:     "GRUB_CMDLINE_LINUX_DEFAULT",
				RemoveTokens:   []string{"quiet", "splash"},
			},
			Fstab: FstabTweak{
				Option:          "noatime",
				Equivalents:     []string{"relatime"},
				ProtectedMounts: []string{"/boot", "/boot/efi"},
				ExcludedFSTypes: []string{"swap"},
			},
			Zram: ZramTweak{
				Package: "zram-config",
				Service: "zram-swap",
			},
			SuggestedServices: []string{
				"bluetooth.service",
				"avahi-daemon.service",
				"cups.service",
				"modemmanager.service",
				"ufw.service",
			},
		},
	}
}
