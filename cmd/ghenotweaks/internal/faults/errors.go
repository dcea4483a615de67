// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package faults defines the error taxonomy shared by the configuration
// mutation engine.
//
// Every error names the file, key or row it concerns and wraps its cause so
// errors.Is and errors.As work through the chain.
//
//   - NotFoundError: target file absent
//   - IOError: read, write or copy failure
//   - ValidationError: proposed value fails format constraints
//   - ExecutionError: external command failed or could not start
//   - ConflictError: target already in the desired state (informational)
package faults

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is a short machine-readable label for an error category.
type Kind string

const (
	KindNotFound   Kind = "not-found"
	KindIO         Kind = "io"
	KindValidation Kind = "validation"
	KindExecution  Kind = "execution"
	KindConflict   Kind = "conflict"
	KindUnknown    Kind = "unknown"
)

// NotFoundError reports that a target file does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: file not found", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// IOError reports a failed filesystem operation.
//
// Op names the step that failed ("read", "write", "copy", "rename", ...).
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Op, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ValidationError reports a value rejected before any confirmation.
type ValidationError struct {
	Path   string
	Key    string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Key != "" {
		fmt.Fprintf(&b, "invalid value %q for %s", e.Value, e.Key)
	} else {
		fmt.Fprintf(&b, "invalid value %q", e.Value)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// ConflictError reports that a key or row is already in the desired state.
// It is not a failure; callers surface it as an informational skip.
type ConflictError struct {
	Path   string
	Key    string
	Detail string
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("%s: %s already in desired state", e.Path, e.Key)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// ExecutionError wraps an external command failure with its captured output.
//
// # Description
//
// Carries the literal argument vector, exit code (-1 when the process never
// exited normally), and both output streams so the caller can report exactly
// what the command said.
//
// # Example
//
//	err := NewExecutionError([]string{"update-grub"}, 1, "", "grub-mkconfig: not found", cause)
//	fmt.Println(err) // "update-grub (exit 1): grub-mkconfig: not found"
type ExecutionError struct {
	// Argv is the command as executed.
	Argv []string

	// ExitCode is the process exit code (-1 if unknown).
	ExitCode int

	// Stdout contains the captured standard output (trimmed).
	Stdout string

	// Stderr contains the captured standard error (trimmed).
	Stderr string

	// Err is the underlying error (may be nil).
	Err error
}

// NewExecutionError creates an ExecutionError, trimming captured output.
func NewExecutionError(argv []string, exitCode int, stdout, stderr string, err error) *ExecutionError {
	return &ExecutionError{
		Argv:     append([]string(nil), argv...),
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(stdout),
		Stderr:   strings.TrimSpace(stderr),
		Err:      err,
	}
}

// Command renders Argv for display, quoting arguments that contain spaces.
func (e *ExecutionError) Command() string {
	return FormatArgv(e.Argv)
}

func (e *ExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s (exit %d): %s", e.Command(), e.ExitCode, e.Stderr)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (exit %d): %v", e.Command(), e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s (exit %d)", e.Command(), e.ExitCode)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// HasStderr returns true if stderr output was captured.
func (e *ExecutionError) HasStderr() bool {
	return e.Stderr != ""
}

// FormatArgv joins an argument vector for display.
func FormatArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
			parts[i] = strconv.Quote(arg)
		} else {
			parts[i] = arg
		}
	}
	return strings.Join(parts, " ")
}

// KindOf classifies err into one of the taxonomy kinds.
func KindOf(err error) Kind {
	var (
		notFound   *NotFoundError
		ioErr      *IOError
		validation *ValidationError
		execution  *ExecutionError
		conflict   *ConflictError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &execution):
		return KindExecution
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &ioErr):
		return KindIO
	default:
		return KindUnknown
	}
}

// ExtractStderr walks the chain for an ExecutionError with stderr.
func ExtractStderr(err error) string {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Stderr
	}
	return ""
}
