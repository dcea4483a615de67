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
	"errors"
	"fmt"
	"strings"
)

// ErrNoConfirmer is returned when a row needs a decision and no Confirmer
// was supplied.
var ErrNoConfirmer = errors.New("mount option augmentation requires a confirmer")

// RowClass is the classification of one mount table line.
type RowClass int

const (
	// RowVerbatim is a blank or comment line.
	RowVerbatim RowClass = iota
	// RowMalformed has fewer than four fields.
	RowMalformed
	// RowSatisfied already carries the option or an equivalent.
	RowSatisfied
	// RowExcluded is swap or a protected mount point.
	RowExcluded
	// RowEligible may receive the option if the operator accepts.
	RowEligible
)

func (c RowClass) String() string {
	switch c {
	case RowVerbatim:
		return "verbatim"
	case RowMalformed:
		return "malformed"
	case RowSatisfied:
		return "satisfied"
	case RowExcluded:
		return "excluded"
	case RowEligible:
		return "eligible"
	default:
		return fmt.Sprintf("RowClass(%d)", int(c))
	}
}

// Row is a parsed mount table entry.
type Row struct {
	Device     string
	MountPoint string
	FSType     string
	Options    string
	// Dump and Pass are empty when the row omits them.
	Dump string
	Pass string
}

// ParseRow splits a mount table line into fields. It reports false for
// blank lines, comments and rows with fewer than four fields.
func ParseRow(line string) (Row, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Row{}, false
	}
	spans := fieldSpans(line)
	if len(spans) < 4 {
		return Row{}, false
	}
	fields := make([]string, len(spans))
	for i, s := range spans {
		fields[i] = line[s.start:s.end]
	}
	row := Row{Device: fields[0], MountPoint: fields[1], FSType: fields[2], Options: fields[3]}
	if len(fields) > 4 {
		row.Dump = fields[4]
	}
	if len(fields) > 5 {
		row.Pass = fields[5]
	}
	return row, true
}

// MountOptionAugmentation appends a mount option to eligible fstab rows.
//
// # Description
//
// Each line is classified in precedence order:
//
//  1. blank or "#" comment: kept verbatim
//  2. fewer than four fields: kept verbatim
//  3. options already hold Option or one of Equivalents (whole token): kept,
//     noted as already satisfied
//  4. fstype in ExcludedFSTypes or mount point in ProtectedMounts: kept,
//     never offered
//  5. otherwise eligible: the Confirmer is asked once for this row
//
// An accepted row gets ",Option" appended to its options field (or Option
// alone when the field is empty). Only that field changes; the separators
// between fields are kept as they were.
//
// Declining every row yields a no-op proposal.
//
// # Thread Safety
//
// The value is immutable and safe for concurrent use. The Confirmer is
// called sequentially, in file order.
type MountOptionAugmentation struct {
	Option          string
	Equivalents     []string
	ExcludedFSTypes []string
	ProtectedMounts []string
}

// NewNoatimeAugmentation returns the standard noatime editor: relatime
// counts as satisfied, swap and /boot, /boot/efi are never touched.
func NewNoatimeAugmentation() MountOptionAugmentation {
	return MountOptionAugmentation{
		Option:          "noatime",
		Equivalents:     []string{"relatime"},
		ExcludedFSTypes: []string{"swap"},
		ProtectedMounts: []string{"/boot", "/boot/efi"},
	}
}

// Name implements Editor.
func (a MountOptionAugmentation) Name() string { return "mount-option" }

// Classify returns the class of line and, for non-verbatim lines, its
// parsed row.
func (a MountOptionAugmentation) Classify(line string) (RowClass, Row) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return RowVerbatim, Row{}
	}
	row, ok := ParseRow(line)
	if !ok {
		return RowMalformed, Row{}
	}
	if a.satisfied(row.Options) {
		return RowSatisfied, row
	}
	if contains(a.ExcludedFSTypes, row.FSType) || contains(a.ProtectedMounts, row.MountPoint) {
		return RowExcluded, row
	}
	return RowEligible, row
}

// Propose implements Editor. The gate is asked once per eligible row.
func (a MountOptionAugmentation) Propose(ctx context.Context, content string, gate Confirmer) (*Proposal, error) {
	if a.Option == "" || strings.ContainsAny(a.Option, ", \t\r\n") {
		return nil, fmt.Errorf("invalid mount option %q", a.Option)
	}

	lines, trailing := splitLines(content)
	updated := make([]string, len(lines))
	copy(updated, lines)

	var (
		notes    []string
		accepted []string
	)
	for i, line := range lines {
		class, row := a.Classify(line)
		switch class {
		case RowSatisfied:
			notes = append(notes, fmt.Sprintf("%s (%s) already has %s", row.MountPoint, row.FSType, a.satisfiedBy(row.Options)))
			continue
		case RowExcluded:
			notes = append(notes, fmt.Sprintf("%s (%s) excluded", row.MountPoint, row.FSType))
			continue
		case RowEligible:
		default:
			continue
		}

		if gate == nil {
			return nil, ErrNoConfirmer
		}
		prompt := fmt.Sprintf("Line %d: %s\nAdd '%s' to %s (%s)?", i+1, strings.TrimSpace(line), a.Option, row.MountPoint, row.FSType)
		ok, err := gate.Confirm(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("confirm %s: %w", row.MountPoint, err)
		}
		if !ok {
			notes = append(notes, fmt.Sprintf("%s declined", row.MountPoint))
			continue
		}

		updated[i] = a.augment(line)
		accepted = append(accepted, row.MountPoint)
	}

	if len(accepted) == 0 {
		return noChange(content, fmt.Sprintf("add %s to no mount points", a.Option), notes...), nil
	}
	return &Proposal{
		Original:    content,
		Content:     joinLines(updated, trailing),
		Description: fmt.Sprintf("add %s to %s", a.Option, strings.Join(accepted, ", ")),
		Notes:       notes,
	}, nil
}

// augment rewrites only the options field of line.
func (a MountOptionAugmentation) augment(line string) string {
	spans := fieldSpans(line)
	opts := spans[3]
	current := line[opts.start:opts.end]

	next := a.Option
	if current != "" {
		next = current + "," + a.Option
	}
	return line[:opts.start] + next + line[opts.end:]
}

func (a MountOptionAugmentation) satisfied(options string) bool {
	return a.satisfiedBy(options) != ""
}

func (a MountOptionAugmentation) satisfiedBy(options string) string {
	for _, tok := range strings.Split(options, ",") {
		if tok == a.Option || contains(a.Equivalents, tok) {
			return tok
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
