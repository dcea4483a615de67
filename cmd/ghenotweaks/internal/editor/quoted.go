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
	"regexp"
	"strings"
)

// QuotedTokenRemoval removes whole tokens from a KEY="tok tok ..." line.
//
// # Description
//
// The first line matching ^KEY="..." is split on whitespace, every token
// equal to one of Tokens (case-sensitive, whole token) is dropped, and the
// rest is rejoined with single spaces in the original order. "quietly"
// survives removal of "quiet".
//
// A missing key or a list with none of the tokens is a no-op. Text after the
// closing quote is kept.
//
// # Example
//
//	r := QuotedTokenRemoval{Key: "GRUB_CMDLINE_LINUX_DEFAULT", Tokens: []string{"quiet", "splash"}}
//	p, _ := r.Propose(ctx, "GRUB_CMDLINE_LINUX_DEFAULT=\"quiet splash nosplash\"\n", nil)
//	// p.Content == "GRUB_CMDLINE_LINUX_DEFAULT=\"nosplash\"\n"
type QuotedTokenRemoval struct {
	Key    string
	Tokens []string
}

// Name implements Editor.
func (r QuotedTokenRemoval) Name() string { return "quoted-token-removal" }

// Propose implements Editor.
func (r QuotedTokenRemoval) Propose(_ context.Context, content string, _ Confirmer) (*Proposal, error) {
	if err := validateKey(r.Key); err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("remove %s from %s", strings.Join(r.Tokens, ", "), r.Key)
	re := quotedPattern(r.Key)

	lines, trailing := splitLines(content)
	for i, line := range lines {
		m := re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		value := line[m[2]:m[3]]
		kept, removed := removeTokens(value, r.Tokens)
		if len(removed) == 0 {
			return noChange(content, desc, fmt.Sprintf("%s has none of %s", r.Key, strings.Join(r.Tokens, ", "))), nil
		}

		rewritten := line[:m[2]] + kept + line[m[3]:]
		updated := make([]string, len(lines))
		copy(updated, lines)
		updated[i] = rewritten
		return &Proposal{
			Original:    content,
			Content:     joinLines(updated, trailing),
			Description: desc,
			Notes:       []string{fmt.Sprintf("line %d: removed %s", i+1, strings.Join(removed, ", "))},
		}, nil
	}

	return noChange(content, desc, fmt.Sprintf("%s not present", r.Key)), nil
}

// LookupQuoted returns the quoted value of the first ^KEY="..." line.
func LookupQuoted(content, key string) (string, bool) {
	lines, _ := splitLines(content)
	re := quotedPattern(key)
	for _, line := range lines {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ContainsToken reports whether the whitespace-separated list holds any of
// tokens as a whole token.
func ContainsToken(list string, tokens ...string) bool {
	_, removed := removeTokens(list, tokens)
	return len(removed) > 0
}

func removeTokens(list string, tokens []string) (string, []string) {
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}
	var kept, removed []string
	for _, tok := range strings.Fields(list) {
		if drop[tok] {
			removed = append(removed, tok)
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " "), removed
}

func quotedPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(key) + `="([^"]*)"`)
}
