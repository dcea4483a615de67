// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-provided names before they are placed in
// an argv or written into a system configuration file.
//
// Commands never go through a shell, so these checks are not about quoting.
// They stop a value from being read as a flag by the target program and
// keep obviously wrong names from reaching sysctl, systemctl or apt.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// sysctlParamPattern matches kernel parameter names such as vm.swappiness
// or net.ipv4.conf.eth0/1.forwarding.
var sysctlParamPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-/]*$`)

// unitNamePattern matches systemd unit names, including templated and
// escaped ones (getty@tty1.service, dev-disk-by\x2duuid.swap).
var unitNamePattern = regexp.MustCompile(`^[A-Za-z0-9:_.\\@][A-Za-z0-9:_.\\@\-]*$`)

// packageNamePattern follows Debian policy: lowercase alphanumerics and
// + - . with at least two characters, starting with an alphanumeric.
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.\-]+$`)

// maxUnitName is the systemd limit on unit name length.
const maxUnitName = 255

// ValidateSysctlParam validates a kernel parameter name.
//
// Example:
//
//	if err := validation.ValidateSysctlParam(param); err != nil {
//	    return fmt.Errorf("invalid parameter: %w", err)
//	}
func ValidateSysctlParam(param string) error {
	if param == "" {
		return fmt.Errorf("sysctl parameter cannot be empty")
	}
	if !sysctlParamPattern.MatchString(param) {
		return fmt.Errorf("invalid sysctl parameter: %q (letters, digits, '_', '.', '-', '/')", param)
	}
	return nil
}

// ValidateUnitName validates a systemd unit name.
func ValidateUnitName(unit string) error {
	if unit == "" {
		return fmt.Errorf("unit name cannot be empty")
	}
	if len(unit) > maxUnitName {
		return fmt.Errorf("unit name too long: %d characters (max %d)", len(unit), maxUnitName)
	}
	if !unitNamePattern.MatchString(unit) {
		return fmt.Errorf("invalid unit name: %q", unit)
	}
	return nil
}

// SanitizeUnitName trims and validates a unit name.
//
//	unit, err := validation.SanitizeUnitName(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeUnitName(unit string) (string, error) {
	trimmed := strings.TrimSpace(unit)
	if err := ValidateUnitName(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ValidatePackageName validates a Debian package name.
func ValidatePackageName(name string) error {
	if !packageNamePattern.MatchString(name) {
		return fmt.Errorf("invalid package name: %q", name)
	}
	return nil
}
