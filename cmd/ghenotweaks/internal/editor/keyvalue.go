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

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

// KeyValueUpdate sets Key=Value in a key=value file such as sysctl.conf.
//
// # Description
//
// A line matches when, after trimming surrounding whitespace, it starts with
// "Key=". The first matching line is replaced by "Key=Value". Later
// duplicates are left alone. A commented line ("#Key=...") does not start
// with "Key=" and is passed through unchanged.
//
// Without a match, a blank line, AttributionComment and "Key=Value" are
// appended.
//
// # Example
//
//	p, _ := KeyValueUpdate{Key: "vm.swappiness", Value: "10"}.Propose(ctx, "vm.swappiness=60\n", nil)
//	// p.Content == "vm.swappiness=10\n"
type KeyValueUpdate struct {
	Key   string
	Value string
}

// Name implements Editor.
func (u KeyValueUpdate) Name() string { return "key-value" }

// Propose implements Editor.
func (u KeyValueUpdate) Propose(_ context.Context, content string, _ Confirmer) (*Proposal, error) {
	if err := validateKey(u.Key); err != nil {
		return nil, err
	}
	if strings.ContainsAny(u.Value, "\r\n") {
		return nil, &faults.ValidationError{Key: u.Key, Value: u.Value, Reason: "value must be a single line"}
	}

	entry := u.Key + "=" + u.Value
	desc := fmt.Sprintf("set %s", entry)

	lines, trailing := splitLines(content)
	for i, line := range lines {
		if !matchesKey(line, u.Key) {
			continue
		}
		if line == entry {
			return noChange(content, desc), nil
		}
		updated := make([]string, len(lines))
		copy(updated, lines)
		updated[i] = entry
		return &Proposal{
			Original:    content,
			Content:     joinLines(updated, trailing),
			Description: desc,
			Notes:       []string{fmt.Sprintf("line %d: %q -> %q", i+1, strings.TrimSpace(line), entry)},
		}, nil
	}

	return &Proposal{
		Original:    content,
		Content:     appendBlock(content, AttributionComment, entry),
		Description: desc,
		Notes:       []string{fmt.Sprintf("%s not present, appending", u.Key)},
	}, nil
}

// LookupKeyValue returns the value of the first line matching key, using the
// same matching rule as KeyValueUpdate.
func LookupKeyValue(content, key string) (string, bool) {
	lines, _ := splitLines(content)
	for _, line := range lines {
		if matchesKey(line, key) {
			trimmed := strings.TrimSpace(line)
			return strings.TrimSpace(trimmed[len(key)+1:]), true
		}
	}
	return "", false
}

func matchesKey(line, key string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), key+"=")
}

func validateKey(key string) error {
	switch {
	case key == "":
		return &faults.ValidationError{Value: key, Reason: "key must not be empty"}
	case strings.ContainsAny(key, "=#\r\n\t "):
		return &faults.ValidationError{Value: key, Reason: "key must not contain '=', '#' or whitespace"}
	}
	return nil
}
