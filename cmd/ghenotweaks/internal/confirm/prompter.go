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
Package confirm provides the confirmation gate: the single place where the
operator says yes or no to a change.

# Implementations

  - InteractivePrompter: line-based, reads from any io.Reader
  - TerminalPrompter: huh forms, used when stdin is a terminal
  - NonInteractivePrompter: refuses to ask (--non-interactive)
  - AutoApprovePrompter: says yes to everything (--yes)
  - ScriptedPrompter: replays fixed answers in tests

Consent is never inferred. Each decision point calls Confirm exactly once,
and any error (including EOF on the interactive reader) is treated as "no"
by callers.
*/
package confirm

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

var (
	// ErrNonInteractive is returned when a prompt is needed but prompting
	// is disabled.
	ErrNonInteractive = errors.New("confirmation required but running non-interactively (use --yes to approve)")

	// ErrCancelled is returned when the operator aborts a prompt.
	ErrCancelled = errors.New("prompt cancelled")

	// ErrInvalidSelection is returned for an out-of-range or non-numeric
	// menu choice.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrNoOptions is returned when Select is called without options.
	ErrNoOptions = errors.New("no options to select from")

	// ErrScriptExhausted is returned by ScriptedPrompter when it runs out
	// of answers.
	ErrScriptExhausted = errors.New("scripted prompter has no more answers")
)

// Prompter asks the operator questions.
//
// # Description
//
// Confirm asks a yes/no question. Select asks for one of several options and
// returns its 0-based index. Input asks for free text and returns def when
// the answer is empty. IsInteractive reports whether a human is answering.
//
// # Thread Safety
//
// Prompters are called synchronously from a single goroutine.
type Prompter interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
	Select(ctx context.Context, prompt string, options []string) (int, error)
	Input(ctx context.Context, prompt, def string) (string, error)
	IsInteractive() bool
}

// Options selects a Prompter in New.
type Options struct {
	// AssumeYes approves every confirmation.
	AssumeYes bool

	// NonInteractive refuses to prompt.
	NonInteractive bool

	// In is the input, normally os.Stdin.
	In io.Reader

	// Out receives prompts, normally os.Stdout.
	Out io.Writer
}

// New picks a Prompter from opts.
//
// AssumeYes wins over NonInteractive. Otherwise a terminal on In gets a
// TerminalPrompter and anything else (pipes, files) gets an
// InteractivePrompter reading lines.
func New(opts Options) Prompter {
	switch {
	case opts.AssumeYes:
		return NewAutoApprovePrompter()
	case opts.NonInteractive:
		return NewNonInteractivePrompter()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if isTerminal(opts.In) {
		return NewTerminalPrompter(opts.In, opts.Out)
	}
	return NewInteractivePrompterWithIO(opts.In, opts.Out)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// -----------------------------------------------------------------------------
// NonInteractivePrompter
// -----------------------------------------------------------------------------

// NonInteractivePrompter refuses every prompt with ErrNonInteractive.
type NonInteractivePrompter struct{}

// NewNonInteractivePrompter creates a NonInteractivePrompter.
func NewNonInteractivePrompter() *NonInteractivePrompter {
	return &NonInteractivePrompter{}
}

// Confirm always fails with ErrNonInteractive.
func (p *NonInteractivePrompter) Confirm(_ context.Context, _ string) (bool, error) {
	return false, ErrNonInteractive
}

// Select always fails with ErrNonInteractive.
func (p *NonInteractivePrompter) Select(_ context.Context, _ string, _ []string) (int, error) {
	return -1, ErrNonInteractive
}

// Input always fails with ErrNonInteractive.
func (p *NonInteractivePrompter) Input(_ context.Context, _, _ string) (string, error) {
	return "", ErrNonInteractive
}

// IsInteractive returns false.
func (p *NonInteractivePrompter) IsInteractive() bool { return false }

// -----------------------------------------------------------------------------
// AutoApprovePrompter
// -----------------------------------------------------------------------------

// AutoApprovePrompter approves every confirmation, picks the first option
// and accepts every default.
type AutoApprovePrompter struct{}

// NewAutoApprovePrompter creates an AutoApprovePrompter.
func NewAutoApprovePrompter() *AutoApprovePrompter {
	return &AutoApprovePrompter{}
}

// Confirm returns true unless ctx is done.
func (p *AutoApprovePrompter) Confirm(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Select returns 0, or ErrNoOptions when options is empty.
func (p *AutoApprovePrompter) Select(ctx context.Context, _ string, options []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	return 0, nil
}

// Input returns def unless ctx is done.
func (p *AutoApprovePrompter) Input(ctx context.Context, _, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return def, nil
}

// IsInteractive returns false.
func (p *AutoApprovePrompter) IsInteractive() bool { return false }

// Compile-time interface checks
var (
	_ Prompter = (*InteractivePrompter)(nil)
	_ Prompter = (*TerminalPrompter)(nil)
	_ Prompter = (*NonInteractivePrompter)(nil)
	_ Prompter = (*AutoApprovePrompter)(nil)
	_ Prompter = (*ScriptedPrompter)(nil)
)
