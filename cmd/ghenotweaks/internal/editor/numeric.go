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
	"strconv"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// NumericUpdate sets KEY=<integer>, as used for GRUB_TIMEOUT.
//
// Only lines matching ^KEY=[0-9]+ are considered; the matched prefix of the
// first such line is rewritten and anything after the digits is kept. Value
// must be a non-negative decimal integer, otherwise Propose fails with a
// *faults.ValidationError before any confirmation can happen.
type NumericUpdate struct {
	Key   string
	Value string
}

// Name implements Editor.
func (u NumericUpdate) Name() string { return "numeric" }

// Propose implements Editor.
func (u NumericUpdate) Propose(_ context.Context, content string, _ Confirmer) (*Proposal, error) {
	if err := validateKey(u.Key); err != nil {
		return nil, err
	}
	value, err := CanonicalInteger(u.Key, u.Value)
	if err != nil {
		return nil, err
	}

	entry := u.Key + "=" + value
	desc := fmt.Sprintf("set %s", entry)
	re := numericPattern(u.Key)

	lines, trailing := splitLines(content)
	for i, line := range lines {
		loc := re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		replaced := entry + line[loc[1]:]
		if replaced == line {
			return noChange(content, desc), nil
		}
		updated := make([]string, len(lines))
		copy(updated, lines)
		updated[i] = replaced
		return &Proposal{
			Original:    content,
			Content:     joinLines(updated, trailing),
			Description: desc,
			Notes:       []string{fmt.Sprintf("line %d: %q -> %q", i+1, line, replaced)},
		}, nil
	}

	return &Proposal{
		Original:    content,
		Content:     appendBlock(content, entry),
		Description: desc,
		Notes:       []string{fmt.Sprintf("%s not present, appending", u.Key)},
	}, nil
}

// LookupNumeric returns the digits of the first ^KEY=[0-9]+ line.
func LookupNumeric(content, key string) (string, bool) {
	m := numericPattern(key).FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CanonicalInteger validates value as a non-negative decimal integer and
// returns it without leading zeros.
func CanonicalInteger(key, value string) (string, error) {
	if !digitsOnly.MatchString(value) {
		return "", &faults.ValidationError{Key: key, Value: value, Reason: "must be a non-negative integer"}
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return "", &faults.ValidationError{Key: key, Value: value, Reason: "out of range"}
	}
	return strconv.FormatUint(n, 10), nil
}

func numericPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `=([0-9]+)`)
}
