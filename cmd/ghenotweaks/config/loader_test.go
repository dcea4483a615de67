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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/etc/sysctl.conf", cfg.Files.Sysctl)
	assert.Equal(t, "/etc/default/grub", cfg.Files.Grub)
	assert.Equal(t, "/etc/fstab", cfg.Files.Fstab)
	assert.Equal(t, "/var/backups/ghenotweaks_ubuntu", cfg.Backup.Root)
	assert.Equal(t, 10*time.Minute, cfg.Commands.Timeout)
	assert.Equal(t, 10, cfg.Tweaks.Swappiness)
	assert.Equal(t, 50, cfg.Tweaks.VFSCachePressure)
	assert.Equal(t, 3, cfg.Tweaks.Grub.Timeout)
	assert.Equal(t, []string{"quiet", "splash"}, cfg.Tweaks.Grub.RemoveTokens)
	assert.Equal(t, "noatime", cfg.Tweaks.Fstab.Option)
	assert.Equal(t, []string{"/boot", "/boot/efi"}, cfg.Tweaks.Fstab.ProtectedMounts)
	assert.True(t, cfg.RequireRoot)
}

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "deep", "nested", "config.yaml")

	require.NoError(t, createDefault(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var cfg GhenoConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_CreatesMissingFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ghenotweaks", "config.yaml")

	cfg, source, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, SourceCreated, source)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(configPath)
	assert.NoError(t, err)

	_, source, err = Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, source)
}

func TestLoad_UncreatableFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg, source, err := Load(filepath.Join(blocker, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, source)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
files:
  sysctl: /tmp/test/sysctl.conf
commands:
  timeout: 30s
tweaks:
  swappiness: 20
  grub:
    remove_tokens: [quiet]
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, source, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, source)
	assert.Equal(t, "/tmp/test/sysctl.conf", cfg.Files.Sysctl)
	assert.Equal(t, "/etc/fstab", cfg.Files.Fstab)
	assert.Equal(t, 30*time.Second, cfg.Commands.Timeout)
	assert.Equal(t, 20, cfg.Tweaks.Swappiness)
	assert.Equal(t, []string{"quiet"}, cfg.Tweaks.Grub.RemoveTokens)
	assert.Equal(t, "GRUB_CMDLINE_LINUX_DEFAULT", cfg.Tweaks.Grub.CmdlineKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("files: [unterminated"), 0o644))

	_, _, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), configPath)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"relative sysctl path", "files: {sysctl: sysctl.conf}", "files.sysctl"},
		{"timeout below minimum", "commands: {timeout: 1s}", `commands.timeout: failed "gte=5s"`},
		{"swappiness too high", "tweaks: {swappiness: 500}", "tweaks.swappiness"},
		{"negative grub timeout", "tweaks: {grub: {timeout: -1}}", "tweaks.grub.timeout"},
		{"no tokens to remove", "tweaks: {grub: {remove_tokens: []}}", "tweaks.grub.remove_tokens"},
		{"token with quote", `tweaks: {grub: {remove_tokens: ['a"b']}}`, "tweaks.grub.remove_tokens[0]"},
		{"option with comma", "tweaks: {fstab: {option: 'noatime,ro'}}", "tweaks.fstab.option"},
		{"protected mount not absolute", "tweaks: {fstab: {protected_mounts: [boot]}}", "tweaks.fstab.protected_mounts[0]"},
		{"unknown log level", "logging: {level: loud}", "logging.level"},
		{"empty zram package", "tweaks: {zram: {package: ''}}", "tweaks.zram.package"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestYamlPath(t *testing.T) {
	assert.Equal(t, "tweaks.grub.timeout", yamlPath("GhenoConfig.tweaks.grub.timeout"))
	assert.Equal(t, "root", yamlPath("root"))
}
