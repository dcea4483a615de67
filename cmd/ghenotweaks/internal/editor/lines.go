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

import "strings"

// AttributionComment marks lines appended by this tool.
const AttributionComment = "# Added by GhenoTweaks"

// splitLines splits content into lines without their terminators and
// reports whether the content ended with a newline.
//
// "" yields no lines. "a\n" and "a" both yield ["a"].
func splitLines(content string) ([]string, bool) {
	if content == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(content, "\n")
	if trailing {
		content = content[:len(content)-1]
	}
	return strings.Split(content, "\n"), trailing
}

// joinLines is the inverse of splitLines.
func joinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		return ""
	}
	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return out
}

// appendBlock appends block after a blank separator line. The result always
// ends with a newline. An empty file gets no separator.
func appendBlock(content string, block ...string) string {
	var b strings.Builder
	b.WriteString(content)
	if content != "" {
		if !strings.HasSuffix(content, "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	for _, line := range block {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// fieldSpan is the byte range of one whitespace-separated field.
type fieldSpan struct {
	start, end int
}

// fieldSpans returns the spans of the ASCII-whitespace-separated fields of
// line.
func fieldSpans(line string) []fieldSpan {
	var spans []fieldSpan
	start := -1
	for i, r := range line {
		if isSpace(r) {
			if start >= 0 {
				spans = append(spans, fieldSpan{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, fieldSpan{start, len(line)})
	}
	return spans
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
