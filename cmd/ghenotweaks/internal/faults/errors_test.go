// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package faults

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExecutionError
		want string
	}{
		{
			name: "with stderr",
			err:  NewExecutionError([]string{"update-grub"}, 1, "", "  disk full\n", nil),
			want: "update-grub (exit 1): disk full",
		},
		{
			name: "with wrapped error only",
			err:  NewExecutionError([]string{"sysctl", "--system"}, -1, "", "", errors.New("executable file not found")),
			want: "sysctl --system (exit -1): executable file not found",
		},
		{
			name: "bare",
			err:  NewExecutionError([]string{"apt", "clean"}, 100, "", "", nil),
			want: "apt clean (exit 100)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewExecutionError([]string{"x"}, 1, "", "", cause)
	assert.ErrorIs(t, err, cause)
}

func TestFormatArgv_QuotesSpaces(t *testing.T) {
	got := FormatArgv([]string{"systemctl", "disable", "my unit.service", ""})
	assert.Equal(t, `systemctl disable "my unit.service" ""`, got)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{&NotFoundError{Path: "/etc/fstab", Err: fs.ErrNotExist}, KindNotFound},
		{&IOError{Op: "read", Path: "/etc/fstab"}, KindIO},
		{fmt.Errorf("wrapped: %w", &ValidationError{Key: "GRUB_TIMEOUT", Value: "-1"}), KindValidation},
		{NewExecutionError([]string{"x"}, 1, "", "", nil), KindExecution},
		{&ConflictError{Path: "/etc/fstab", Key: "/"}, KindConflict},
		{errors.New("other"), KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "KindOf(%v)", tt.err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Path: "/etc/default/grub", Key: "GRUB_TIMEOUT", Value: "abc", Reason: "must be a non-negative integer"}
	assert.Equal(t, `/etc/default/grub: invalid value "abc" for GRUB_TIMEOUT: must be a non-negative integer`, err.Error())
}

func TestExtractStderr(t *testing.T) {
	inner := NewExecutionError([]string{"dpkg", "-s", "zram-config"}, 1, "", "package not installed", nil)
	assert.Equal(t, "package not installed", ExtractStderr(fmt.Errorf("check: %w", inner)))
	assert.Empty(t, ExtractStderr(errors.New("plain")))
}
