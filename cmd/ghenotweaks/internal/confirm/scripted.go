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
	"fmt"
	"sync"
)

// ScriptedPrompter replays fixed answers, for tests.
//
// # Example
//
//	p := confirm.NewScriptedPrompter(true, false)
//	p.Confirm(ctx, "first?")  // true
//	p.Confirm(ctx, "second?") // false
//	p.Confirm(ctx, "third?")  // ErrScriptExhausted
//	p.Prompts()               // ["first?", "second?", "third?"]
type ScriptedPrompter struct {
	mu         sync.Mutex
	answers    []bool
	selections []int
	inputs     []string
	prompts    []string
}

// NewScriptedPrompter returns a prompter answering Confirm with answers in
// order.
func NewScriptedPrompter(answers ...bool) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// WithSelections queues answers for Select.
func (p *ScriptedPrompter) WithSelections(selections ...int) *ScriptedPrompter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selections = append(p.selections, selections...)
	return p
}

// WithInputs queues answers for Input. An empty answer takes the default.
func (p *ScriptedPrompter) WithInputs(inputs ...string) *ScriptedPrompter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, inputs...)
	return p
}

// Confirm implements Prompter.
func (p *ScriptedPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts = append(p.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(p.answers) == 0 {
		return false, fmt.Errorf("%w: %q", ErrScriptExhausted, prompt)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

// Select implements Prompter.
func (p *ScriptedPrompter) Select(ctx context.Context, prompt string, options []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts = append(p.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	if len(p.selections) == 0 {
		return -1, fmt.Errorf("%w: %q", ErrScriptExhausted, prompt)
	}
	choice := p.selections[0]
	p.selections = p.selections[1:]
	if choice < 0 || choice >= len(options) {
		return -1, fmt.Errorf("%w: %d", ErrInvalidSelection, choice)
	}
	return choice, nil
}

// Input implements Prompter.
func (p *ScriptedPrompter) Input(ctx context.Context, prompt, def string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts = append(p.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(p.inputs) == 0 {
		return "", fmt.Errorf("%w: %q", ErrScriptExhausted, prompt)
	}
	value := p.inputs[0]
	p.inputs = p.inputs[1:]
	if value == "" {
		return def, nil
	}
	return value, nil
}

// IsInteractive returns true.
func (p *ScriptedPrompter) IsInteractive() bool { return true }

// Prompts returns every prompt shown so far.
func (p *ScriptedPrompter) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.prompts))
	copy(out, p.prompts)
	return out
}

// Remaining returns the number of unused Confirm answers.
func (p *ScriptedPrompter) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.answers)
}
