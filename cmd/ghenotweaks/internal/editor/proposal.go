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
Package editor computes proposed new contents for line-oriented and
field-oriented configuration files.

Editors never touch the filesystem. They receive the current content of a
file and return a Proposal describing the would-be new content. Writing,
backing up and confirming the file-level change belong to the mutation
orchestrator.

# Editors

  - KeyValueUpdate: find-or-append key=value (sysctl.conf)
  - NumericUpdate: find-or-append KEY=<integer> (GRUB_TIMEOUT)
  - QuotedTokenRemoval: drop tokens from KEY="a b c" (GRUB_CMDLINE_LINUX_DEFAULT)
  - MountOptionAugmentation: append a mount option per fstab row, asking
    per row
  - Chain: several editors folded into one proposal
  - ContentReplacement: replace the whole file (backup restore)

All editors preserve lines they do not change byte for byte, including the
presence or absence of a final newline.
*/
package editor

import (
	"context"
)

// Confirmer asks the operator a yes/no question.
//
// Editors that need a decision per row (the mount table editor) receive one.
// Line editors ignore it.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Editor computes a Proposal from the current content of a file.
//
// # Description
//
// Propose must be pure with respect to content: it returns a new string and
// never modifies shared state. A Proposal whose NoChange method reports
// true means the file is already in the desired state.
//
// # Inputs
//
//   - ctx: Passed to the Confirmer for per-row decisions.
//   - content: Current file content.
//   - gate: Per-row decision point. May be nil for editors that do not ask.
//
// # Outputs
//
//   - *Proposal: The would-be content. Never nil when err is nil.
//   - error: *faults.ValidationError for rejected values, or the gate's
//     error.
type Editor interface {
	Name() string
	Propose(ctx context.Context, content string, gate Confirmer) (*Proposal, error)
}

// Proposal is a would-be new version of a file.
type Proposal struct {
	// Original is the content the proposal was computed from.
	Original string `json:"-"`

	// Content is the proposed new content.
	Content string `json:"-"`

	// Description summarizes the change for prompts and reports.
	Description string `json:"description"`

	// Notes lists informational findings such as rows already satisfied or
	// excluded.
	Notes []string `json:"notes,omitempty"`
}

// NoChange reports whether applying the proposal would leave the file as is.
func (p *Proposal) NoChange() bool {
	return p.Content == p.Original
}

// Changes returns the line-level differences between Original and Content.
func (p *Proposal) Changes() []LineChange {
	return lineChanges(p.Original, p.Content)
}

// UnifiedDiff renders the proposal as a unified diff labelled with path.
// It returns "" when there is no change.
func (p *Proposal) UnifiedDiff(path string) (string, error) {
	return UnifiedDiff(path, p.Original, p.Content, DefaultContextLines)
}

func noChange(content, description string, notes ...string) *Proposal {
	return &Proposal{
		Original:    content,
		Content:     content,
		Description: description,
		Notes:       notes,
	}
}
