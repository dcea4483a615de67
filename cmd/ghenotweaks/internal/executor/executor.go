// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package executor runs external privileged commands (sysctl, systemctl, apt,
update-grub, dpkg) behind an interface so the tweak logic can be tested
without touching the host.

Commands are always passed as a literal argument vector. Nothing is ever
interpreted by a shell, so user-supplied values such as service names cannot
inject extra commands.
*/
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

const (
	// MinTimeout is the absolute minimum for a command.
	// Prevents a zero or negative configuration from killing every command.
	MinTimeout = 5 * time.Second

	// DefaultTimeout bounds commands like `apt install` that may legitimately
	// take minutes.
	DefaultTimeout = 10 * time.Minute

	// WaitDelay bounds how long Execute waits for output pipes to close
	// after the command was killed. A descendant that left the process
	// group can otherwise hold them open indefinitely.
	WaitDelay = 3 * time.Second
)

// ErrEmptyCommand is returned when Execute is called without an argv.
var ErrEmptyCommand = errors.New("empty command")

// Result is the captured outcome of one command.
type Result struct {
	Argv     []string      `json:"argv"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Success reports whether the command exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs external commands.
//
// # Description
//
// Execute runs argv[0] with argv[1:] as literal arguments and waits for it
// to exit, capturing stdout and stderr.
//
// # Inputs
//
//   - ctx: Context for cancellation. Implementations also apply their own
//     timeout.
//   - argv: Command and arguments. Must not be empty.
//   - checkExitCode: When true, a non-zero exit is returned as an
//     *faults.ExecutionError. When false, the Result is returned with a nil
//     error and the caller inspects ExitCode.
//
// # Outputs
//
//   - Result: Captured output. Populated even when err is non-nil.
//   - error: *faults.ExecutionError for failures. A missing executable or a
//     timeout is always an error regardless of checkExitCode.
type Executor interface {
	Execute(ctx context.Context, argv []string, checkExitCode bool) (Result, error)
}

// DefaultExecutor implements Executor using os/exec.
type DefaultExecutor struct {
	timeout time.Duration
}

// NewDefaultExecutor creates an executor that bounds every command by timeout.
// A timeout below MinTimeout is raised to MinTimeout.
func NewDefaultExecutor(timeout time.Duration) *DefaultExecutor {
	return &DefaultExecutor{timeout: EnforceMinTimeout(timeout, MinTimeout)}
}

// Timeout returns the effective per-command timeout.
func (e *DefaultExecutor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs a command synchronously and captures its output.
func (e *DefaultExecutor) Execute(ctx context.Context, argv []string, checkExitCode bool) (Result, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Result{}, faults.NewExecutionError(argv, -1, "", "", ErrEmptyCommand)
	}

	result := Result{Argv: append([]string(nil), argv...)}
	if err := ctx.Err(); err != nil {
		result.ExitCode = -1
		return result, faults.NewExecutionError(argv, -1, "", "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = WaitDelay
	killProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err == nil {
		return result, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		result.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) && ctx.Err() == nil {
			ctxErr = fmt.Errorf("timed out after %s: %w", e.timeout, ctxErr)
		}
		return result, faults.NewExecutionError(argv, -1, result.Stdout, result.Stderr, ctxErr)
	}

	// The command exited but a descendant kept its output open; the exit
	// status still decides.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		if result.ExitCode == 0 || !checkExitCode {
			return result, nil
		}
		return result, faults.NewExecutionError(argv, result.ExitCode, result.Stdout, result.Stderr, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if !checkExitCode {
			return result, nil
		}
		return result, faults.NewExecutionError(argv, result.ExitCode, result.Stdout, result.Stderr, err)
	}

	// Start failure, typically the executable is missing.
	result.ExitCode = -1
	return result, faults.NewExecutionError(argv, -1, result.Stdout, result.Stderr, err)
}

// EnforceMinTimeout returns at least the minimum timeout.
//
// A zero, negative, or too-small request yields minimum.
func EnforceMinTimeout(requested, minimum time.Duration) time.Duration {
	if requested <= 0 || requested < minimum {
		return minimum
	}
	return requested
}

// -----------------------------------------------------------------------------
// Mock Implementation for Testing
// -----------------------------------------------------------------------------

// MockExecutor is a test double for Executor.
//
// Configure ExecuteFunc before use. If it is nil and Execute is called, the
// mock panics.
//
// # Examples
//
//	mock := &MockExecutor{
//	    ExecuteFunc: func(ctx context.Context, argv []string, check bool) (Result, error) {
//	        if argv[0] == "sysctl" && argv[1] == "-n" {
//	            return Result{Argv: argv, Stdout: "60\n"}, nil
//	        }
//	        return Result{Argv: argv}, nil
//	    },
//	}
type MockExecutor struct {
	// ExecuteFunc is called when Execute is invoked.
	ExecuteFunc func(ctx context.Context, argv []string, checkExitCode bool) (Result, error)

	// Calls records all invocations for verification.
	Calls []Call

	mu sync.Mutex
}

// Call records a single Execute invocation.
type Call struct {
	Argv          []string
	CheckExitCode bool
}

// Execute delegates to ExecuteFunc and records the call.
func (m *MockExecutor) Execute(ctx context.Context, argv []string, checkExitCode bool) (Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, Call{Argv: append([]string(nil), argv...), CheckExitCode: checkExitCode})
	fn := m.ExecuteFunc
	m.mu.Unlock()

	if fn == nil {
		panic("MockExecutor.ExecuteFunc not set")
	}
	return fn(ctx, argv, checkExitCode)
}

// GetCalls returns a copy of all recorded calls.
func (m *MockExecutor) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Call, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// Commands returns the recorded argvs, one per call.
func (m *MockExecutor) Commands() [][]string {
	calls := m.GetCalls()
	out := make([][]string, len(calls))
	for i, c := range calls {
		out[i] = c.Argv
	}
	return out
}

// Reset clears all recorded calls.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Compile-time interface compliance check.
var (
	_ Executor = (*DefaultExecutor)(nil)
	_ Executor = (*MockExecutor)(nil)
)
