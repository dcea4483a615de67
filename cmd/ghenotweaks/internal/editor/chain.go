// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package editor

import (
	"context"
	"fmt"
	"strings"
)

// Chain folds several editors over the same content, producing a single
// proposal. The GRUB tweak uses it so the timeout and the kernel command
// line are confirmed, backed up and written together.
type Chain struct {
	Editors []Editor
}

// NewChain returns a Chain of editors.
func NewChain(editors ...Editor) Chain {
	return Chain{Editors: editors}
}

// Name implements Editor.
func (c Chain) Name() string {
	names := make([]string, len(c.Editors))
	for i, e := range c.Editors {
		names[i] = e.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Propose implements Editor. The first error aborts the chain.
func (c Chain) Propose(ctx context.Context, content string, gate Confirmer) (*Proposal, error) {
	current := content
	var (
		descriptions []string
		notes        []string
	)
	for _, e := range c.Editors {
		p, err := e.Propose(ctx, current, gate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		notes = append(notes, p.Notes...)
		if p.NoChange() {
			continue
		}
		descriptions = append(descriptions, p.Description)
		current = p.Content
	}

	desc := strings.Join(descriptions, "; ")
	if desc == "" {
		desc = "no changes"
	}
	return &Proposal{
		Original:    content,
		Content:     current,
		Description: desc,
		Notes:       notes,
	}, nil
}

// ContentReplacement proposes replacing the whole file with Content.
// Restoring a backup goes through it so the current file is backed up and
// confirmed like any other change.
type ContentReplacement struct {
	Content string
	Label   string
}

// Name implements Editor.
func (r ContentReplacement) Name() string { return "content-replacement" }

// Propose implements Editor.
func (r ContentReplacement) Propose(_ context.Context, content string, _ Confirmer) (*Proposal, error) {
	desc := r.Label
	if desc == "" {
		desc = "replace file content"
	}
	return &Proposal{
		Original:    content,
		Content:     r.Content,
		Description: desc,
	}, nil
}

// Compile-time interface checks
var (
	_ Editor = KeyValueUpdate{}
	_ Editor = NumericUpdate{}
	_ Editor = QuotedTokenRemoval{}
	_ Editor = MountOptionAugmentation{}
	_ Editor = Chain{}
	_ Editor = ContentReplacement{}
)
