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
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/AleutianAI/ghenotweaks/pkg/ux"
)

// TerminalPrompter asks questions with huh forms.
//
// Aborting a confirm form (Ctrl+C, Esc) is a "no". Aborting a select or
// input form returns ErrCancelled.
type TerminalPrompter struct {
	in    io.Reader
	out   io.Writer
	theme *huh.Theme
}

// NewTerminalPrompter creates a TerminalPrompter on the given terminal.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out, theme: ux.HuhTheme()}
}

// Confirm implements Prompter.
func (p *TerminalPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	title, description := splitPrompt(prompt)
	var ok bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if description != "" {
		field = field.Description(description)
	}

	err := p.form(field).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Select implements Prompter.
func (p *TerminalPrompter) Select(ctx context.Context, prompt string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}
	choice := 0
	field := huh.NewSelect[int]().
		Title(prompt).
		Options(opts...).
		Value(&choice)

	err := p.form(field).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return -1, ErrCancelled
	}
	if err != nil {
		return -1, err
	}
	return choice, nil
}

// Input implements Prompter.
func (p *TerminalPrompter) Input(ctx context.Context, prompt, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value string
	field := huh.NewInput().
		Title(prompt).
		Placeholder(def).
		Value(&value)

	err := p.form(field).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", ErrCancelled
	}
	if err != nil {
		return "", err
	}
	if value = strings.TrimSpace(value); value == "" {
		return def, nil
	}
	return value, nil
}

// IsInteractive returns true.
func (p *TerminalPrompter) IsInteractive() bool { return true }

func (p *TerminalPrompter) form(field huh.Field) *huh.Form {
	return huh.NewForm(huh.NewGroup(field)).
		WithTheme(p.theme).
		WithInput(p.in).
		WithOutput(p.out)
}

// splitPrompt uses the last line of a multi-line prompt as the question and
// the rest as its description.
func splitPrompt(prompt string) (string, string) {
	prompt = strings.TrimSpace(prompt)
	idx := strings.LastIndex(prompt, "\n")
	if idx < 0 {
		return prompt, ""
	}
	return strings.TrimSpace(prompt[idx+1:]), strings.TrimSpace(prompt[:idx])
}
