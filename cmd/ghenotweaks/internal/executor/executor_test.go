// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package executor

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestEnforceMinTimeout(t *testing.T) {
	tests := []struct {
		name      string
		requested time.Duration
		want      time.Duration
	}{
		{"zero uses minimum", 0, MinTimeout},
		{"negative uses minimum", -time.Second, MinTimeout},
		{"below minimum raised", time.Second, MinTimeout},
		{"above minimum kept", time.Minute, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnforceMinTimeout(tt.requested, MinTimeout))
		})
	}
}

func TestNewDefaultExecutor_Timeout(t *testing.T) {
	assert.Equal(t, MinTimeout, NewDefaultExecutor(0).Timeout())
	assert.Equal(t, DefaultTimeout, NewDefaultExecutor(DefaultTimeout).Timeout())
}

func TestDefaultExecutor_CapturesOutput(t *testing.T) {
	requireBinary(t, "sh")
	e := NewDefaultExecutor(MinTimeout)

	res, err := e.Execute(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"}, true)
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Success())
}

func TestDefaultExecutor_NonZeroExit(t *testing.T) {
	requireBinary(t, "sh")
	e := NewDefaultExecutor(MinTimeout)
	argv := []string{"sh", "-c", "echo inactive; echo nope >&2; exit 3"}

	t.Run("checked", func(t *testing.T) {
		res, err := e.Execute(context.Background(), argv, true)
		require.Error(t, err)

		var execErr *faults.ExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, 3, execErr.ExitCode)
		assert.Equal(t, "nope", execErr.Stderr)
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("unchecked", func(t *testing.T) {
		res, err := e.Execute(context.Background(), argv, false)
		require.NoError(t, err)
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "inactive\n", res.Stdout)
		assert.False(t, res.Success())
	})
}

func TestDefaultExecutor_MissingExecutableAlwaysFails(t *testing.T) {
	e := NewDefaultExecutor(MinTimeout)
	res, err := e.Execute(context.Background(), []string{"ghenotweaks-definitely-missing-binary"}, false)

	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
	assert.Equal(t, faults.KindExecution, faults.KindOf(err))
}

func TestDefaultExecutor_ArgumentsAreLiteral(t *testing.T) {
	requireBinary(t, "printf")
	e := NewDefaultExecutor(MinTimeout)

	res, err := e.Execute(context.Background(), []string{"printf", "%s", "a; echo injected"}, true)
	require.NoError(t, err)
	assert.Equal(t, "a; echo injected", res.Stdout)
}

func TestDefaultExecutor_EmptyArgv(t *testing.T) {
	e := NewDefaultExecutor(MinTimeout)
	_, err := e.Execute(context.Background(), nil, true)
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestDefaultExecutor_CancelledContext(t *testing.T) {
	requireBinary(t, "sleep")
	e := NewDefaultExecutor(MinTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Execute(ctx, []string{"sleep", "10"}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, res.ExitCode)
}

func TestDefaultExecutor_ContextDeadlineKillsProcess(t *testing.T) {
	requireBinary(t, "sleep")
	e := NewDefaultExecutor(MinTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Execute(ctx, []string{"sleep", "10"}, false)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultExecutor_TimeoutKillsBackgroundChildren(t *testing.T) {
	requireBinary(t, "sh")
	requireBinary(t, "sleep")
	e := NewDefaultExecutor(MinTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := e.Execute(ctx, []string{"sh", "-c", "sleep 30 & wait"}, true)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, res.ExitCode)
}

func TestDefaultExecutor_DetachedChildDoesNotBlock(t *testing.T) {
	requireBinary(t, "sh")
	requireBinary(t, "setsid")
	requireBinary(t, "sleep")
	e := NewDefaultExecutor(MinTimeout)

	// The child leaves the process group but inherits stdout, so only
	// WaitDelay can release Execute.
	start := time.Now()
	res, err := e.Execute(context.Background(), []string{"sh", "-c", "setsid sleep 30 & echo started"}, true)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), WaitDelay+5*time.Second)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "started\n", res.Stdout)
}

func TestMockExecutor_RecordsCalls(t *testing.T) {
	mock := &MockExecutor{
		ExecuteFunc: func(ctx context.Context, argv []string, check bool) (Result, error) {
			return Result{Argv: argv, Stdout: "60\n"}, nil
		},
	}

	res, err := mock.Execute(context.Background(), []string{"sysctl", "-n", "vm.swappiness"}, true)
	require.NoError(t, err)
	assert.Equal(t, "60\n", res.Stdout)

	calls := mock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"sysctl", "-n", "vm.swappiness"}, calls[0].Argv)
	assert.True(t, calls[0].CheckExitCode)
	assert.Equal(t, [][]string{{"sysctl", "-n", "vm.swappiness"}}, mock.Commands())

	mock.Reset()
	assert.Empty(t, mock.GetCalls())
}

func TestMockExecutor_PanicsWithoutFunc(t *testing.T) {
	mock := &MockExecutor{}
	assert.Panics(t, func() {
		_, _ = mock.Execute(context.Background(), []string{"x"}, true)
	})
}

func TestMockExecutor_ConcurrentCalls(t *testing.T) {
	mock := &MockExecutor{
		ExecuteFunc: func(ctx context.Context, argv []string, check bool) (Result, error) {
			return Result{Argv: argv}, nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mock.Execute(context.Background(), []string{"true"}, true)
		}()
	}
	wg.Wait()

	assert.Len(t, mock.GetCalls(), 20)
}
