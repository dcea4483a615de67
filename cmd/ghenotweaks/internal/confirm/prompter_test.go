// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package confirm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// InteractivePrompter Tests
// -----------------------------------------------------------------------------

func TestInteractivePrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"lowercase y", "y\n", true},
		{"uppercase Y", "Y\n", true},
		{"yes", "yes\n", true},
		{"portuguese s", "s\n", true},
		{"portuguese SIM", "SIM\n", true},
		{"with spaces", "  y  \n", true},
		{"crlf", "y\r\n", true},
		{"no newline", "yes", true},
		{"n", "n\n", false},
		{"empty line", "\n", false},
		{"other word", "sure\n", false},
		{"yess", "yess\n", false},
		{"EOF", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewInteractivePrompterWithIO(strings.NewReader(tt.input), &bytes.Buffer{})
			got, err := p.Confirm(context.Background(), "Continue?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInteractivePrompter_Confirm_ShowsPrompt(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewInteractivePrompterWithIO(strings.NewReader("y\n"), out)

	_, _ = p.Confirm(context.Background(), "Apply changes to /etc/sysctl.conf?")
	assert.Contains(t, out.String(), "Apply changes to /etc/sysctl.conf?")
	assert.Contains(t, out.String(), "[y/N]")
}

func TestInteractivePrompter_Confirm_SequentialAnswers(t *testing.T) {
	p := NewInteractivePrompterWithIO(strings.NewReader("y\nn\ns\n"), &bytes.Buffer{})
	ctx := context.Background()

	var got []bool
	for i := 0; i < 4; i++ {
		ok, err := p.Confirm(ctx, "row?")
		require.NoError(t, err)
		got = append(got, ok)
	}
	assert.Equal(t, []bool{true, false, true, false}, got)
}

func TestInteractivePrompter_Confirm_ContextCancelled(t *testing.T) {
	p := NewInteractivePrompterWithIO(strings.NewReader("y\n"), &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := p.Confirm(ctx, "Continue?")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestInteractivePrompter_Select(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"first", "1\n", 0},
		{"last", "3\n", 2},
		{"spaces", "  2  \n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewInteractivePrompterWithIO(strings.NewReader(tt.input), &bytes.Buffer{})
			got, err := p.Select(context.Background(), "Choose:", []string{"A", "B", "C"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInteractivePrompter_Select_Invalid(t *testing.T) {
	for _, input := range []string{"0\n", "5\n", "-1\n", "abc\n", "\n"} {
		p := NewInteractivePrompterWithIO(strings.NewReader(input), &bytes.Buffer{})
		_, err := p.Select(context.Background(), "Choose:", []string{"A", "B"})
		assert.ErrorIs(t, err, ErrInvalidSelection, "input %q", input)
	}
}

func TestInteractivePrompter_Select_DisplaysOptions(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewInteractivePrompterWithIO(strings.NewReader("1\n"), out)

	_, _ = p.Select(context.Background(), "Main menu", []string{"Tune swappiness", "Exit"})
	assert.Contains(t, out.String(), "Main menu")
	assert.Contains(t, out.String(), "1. Tune swappiness")
	assert.Contains(t, out.String(), "2. Exit")
}

func TestInteractivePrompter_Select_EOFAndEmpty(t *testing.T) {
	p := NewInteractivePrompterWithIO(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Select(context.Background(), "Choose:", []string{"A"})
	assert.ErrorIs(t, err, ErrCancelled)

	_, err = p.Select(context.Background(), "Choose:", nil)
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestInteractivePrompter_IsInteractive(t *testing.T) {
	assert.True(t, NewInteractivePrompter().IsInteractive())
}

// -----------------------------------------------------------------------------
// NonInteractive / AutoApprove Tests
// -----------------------------------------------------------------------------

func TestInteractivePrompter_Input(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"typed value", "5\n", "5", nil},
		{"trimmed", "  7 \n", "7", nil},
		{"empty takes default", "\n", "3", nil},
		{"raw text kept", "abc\n", "abc", nil},
		{"EOF cancels", "", "", ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			p := NewInteractivePrompterWithIO(strings.NewReader(tt.input), out)

			got, err := p.Input(context.Background(), "New timeout in seconds", "3")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "New timeout in seconds [3]: ")
		})
	}
}

func TestNonInteractivePrompter(t *testing.T) {
	p := NewNonInteractivePrompter()

	ok, err := p.Confirm(context.Background(), "Continue?")
	assert.ErrorIs(t, err, ErrNonInteractive)
	assert.False(t, ok)

	_, err = p.Select(context.Background(), "Choose:", []string{"A"})
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = p.Input(context.Background(), "Value:", "3")
	assert.ErrorIs(t, err, ErrNonInteractive)
	assert.False(t, p.IsInteractive())
}

func TestAutoApprovePrompter(t *testing.T) {
	p := NewAutoApprovePrompter()

	ok, err := p.Confirm(context.Background(), "Continue?")
	require.NoError(t, err)
	assert.True(t, ok)

	idx, err := p.Select(context.Background(), "Choose:", []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = p.Select(context.Background(), "Choose:", nil)
	assert.ErrorIs(t, err, ErrNoOptions)

	value, err := p.Input(context.Background(), "Value:", "3")
	require.NoError(t, err)
	assert.Equal(t, "3", value)
	assert.False(t, p.IsInteractive())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Confirm(ctx, "Continue?")
	assert.ErrorIs(t, err, context.Canceled)
}

// -----------------------------------------------------------------------------
// ScriptedPrompter Tests
// -----------------------------------------------------------------------------

func TestScriptedPrompter(t *testing.T) {
	p := NewScriptedPrompter(true, false).WithSelections(1)
	ctx := context.Background()

	ok, err := p.Confirm(ctx, "first?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, p.Remaining())

	ok, err = p.Confirm(ctx, "second?")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Confirm(ctx, "third?")
	assert.ErrorIs(t, err, ErrScriptExhausted)

	idx, err := p.Select(ctx, "menu", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = p.Select(ctx, "menu", []string{"a", "b"})
	assert.ErrorIs(t, err, ErrScriptExhausted)

	assert.Equal(t, []string{"first?", "second?", "third?", "menu", "menu"}, p.Prompts())
}

func TestScriptedPrompter_Input(t *testing.T) {
	p := NewScriptedPrompter().WithInputs("abc", "")
	ctx := context.Background()

	value, err := p.Input(ctx, "timeout", "3")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	value, err = p.Input(ctx, "timeout", "3")
	require.NoError(t, err)
	assert.Equal(t, "3", value)

	_, err = p.Input(ctx, "timeout", "3")
	assert.ErrorIs(t, err, ErrScriptExhausted)
}

func TestScriptedPrompter_SelectionOutOfRange(t *testing.T) {
	p := NewScriptedPrompter().WithSelections(5)
	_, err := p.Select(context.Background(), "menu", []string{"a"})
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

// -----------------------------------------------------------------------------
// New / helpers
// -----------------------------------------------------------------------------

func TestNew_SelectsImplementation(t *testing.T) {
	in := strings.NewReader("")
	out := &bytes.Buffer{}

	assert.IsType(t, &AutoApprovePrompter{}, New(Options{AssumeYes: true, NonInteractive: true}))
	assert.IsType(t, &NonInteractivePrompter{}, New(Options{NonInteractive: true}))
	assert.IsType(t, &InteractivePrompter{}, New(Options{In: in, Out: out}))
}

func TestSplitPrompt(t *testing.T) {
	title, desc := splitPrompt("Line 2: UUID=x / ext4 defaults 0 1\nAdd 'noatime' to / (ext4)?")
	assert.Equal(t, "Add 'noatime' to / (ext4)?", title)
	assert.Equal(t, "Line 2: UUID=x / ext4 defaults 0 1", desc)

	title, desc = splitPrompt("Continue?")
	assert.Equal(t, "Continue?", title)
	assert.Empty(t, desc)
}
