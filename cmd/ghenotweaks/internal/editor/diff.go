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
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// DefaultContextLines is the number of unchanged lines shown around a change.
const DefaultContextLines = 2

const noNewlineMarker = `\ No newline at end of file`

// ChangeKind says whether a line was removed or added.
type ChangeKind string

const (
	ChangeRemoved ChangeKind = "removed"
	ChangeAdded   ChangeKind = "added"
)

// LineChange is one removed or added line.
type LineChange struct {
	Kind ChangeKind `json:"kind"`
	// Line is 1-based, in the original file for removals and in the new
	// file for additions.
	Line int    `json:"line"`
	Text string `json:"text"`
}

func matcher(a, b []string) *difflib.SequenceMatcher {
	return difflib.NewMatcherWithJunk(a, b, false, nil)
}

func lineChanges(original, proposed string) []LineChange {
	a, b := splitRaw(original), splitRaw(proposed)
	var changes []LineChange
	for _, op := range matcher(a, b).GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		for i := op.I1; i < op.I2; i++ {
			changes = append(changes, LineChange{Kind: ChangeRemoved, Line: i + 1, Text: strings.TrimSuffix(a[i], "\n")})
		}
		for j := op.J1; j < op.J2; j++ {
			changes = append(changes, LineChange{Kind: ChangeAdded, Line: j + 1, Text: strings.TrimSuffix(b[j], "\n")})
		}
	}
	return changes
}

// UnifiedDiff renders a unified diff between two versions of the file at
// path with the given number of context lines. It returns "" when the
// contents are equal.
func UnifiedDiff(path, original, proposed string, context int) (string, error) {
	if original == proposed {
		return "", nil
	}
	a, b := splitRaw(original), splitRaw(proposed)

	fd := &diff.FileDiff{
		OrigName: path,
		NewName:  path,
	}
	for _, group := range matcher(a, b).GetGroupedOpCodes(context) {
		fd.Hunks = append(fd.Hunks, buildHunk(group, a, b))
	}
	if len(fd.Hunks) == 0 {
		return "", nil
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("render diff for %s: %w", path, err)
	}
	return string(out), nil
}

func buildHunk(group []difflib.OpCode, a, b []string) *diff.Hunk {
	first, last := group[0], group[len(group)-1]

	var body bytes.Buffer
	for _, op := range group {
		if op.Tag == 'e' {
			for _, line := range a[op.I1:op.I2] {
				writeBodyLine(&body, ' ', line)
			}
			continue
		}
		for _, line := range a[op.I1:op.I2] {
			writeBodyLine(&body, '-', line)
		}
		for _, line := range b[op.J1:op.J2] {
			writeBodyLine(&body, '+', line)
		}
	}

	origStart, origLines := unifiedRange(first.I1, last.I2)
	newStart, newLines := unifiedRange(first.J1, last.J2)
	return &diff.Hunk{
		OrigStartLine: int32(origStart),
		OrigLines:     int32(origLines),
		NewStartLine:  int32(newStart),
		NewLines:      int32(newLines),
		Body:          body.Bytes(),
	}
}

// unifiedRange converts a half-open 0-based range into unified diff
// start/length, where an empty range starts at the line before it.
func unifiedRange(start, stop int) (int, int) {
	length := stop - start
	if length == 0 {
		return start, 0
	}
	return start + 1, length
}

func writeBodyLine(buf *bytes.Buffer, prefix byte, line string) {
	buf.WriteByte(prefix)
	if strings.HasSuffix(line, "\n") {
		buf.WriteString(line)
		return
	}
	buf.WriteString(line)
	buf.WriteByte('\n')
	buf.WriteString(noNewlineMarker)
	buf.WriteByte('\n')
}

// splitRaw splits content into lines that keep their "\n" terminator, so a
// final line without a newline compares unequal to the same line with one.
func splitRaw(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
