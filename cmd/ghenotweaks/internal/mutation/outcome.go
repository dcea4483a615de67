// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mutation

import (
	"encoding/json"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/backup"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/executor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
)

// =============================================================================
// Status
// =============================================================================

// Status is the final state of one safe-apply operation.
type Status string

const (
	// StatusApplied means the backup exists, the file was written, and
	// propagation (if any) succeeded.
	StatusApplied Status = "applied"

	// StatusPropagationFailed means the file was written but the follow-up
	// command failed. The file is not rolled back.
	StatusPropagationFailed Status = "applied-propagation-failed"

	// StatusSkippedByUser means the confirmation was declined.
	StatusSkippedByUser Status = "skipped-by-user"

	// StatusNoChange means the file is already in the desired state.
	StatusNoChange Status = "skipped-no-change-needed"

	// StatusFailed means nothing was written. Err says why.
	StatusFailed Status = "failed"

	// StatusPreviewed means a dry run computed the change without asking or
	// writing.
	StatusPreviewed Status = "previewed"
)

// Wrote reports whether the target file was modified.
func (s Status) Wrote() bool {
	return s == StatusApplied || s == StatusPropagationFailed
}

// =============================================================================
// Outcome
// =============================================================================

// Outcome reports what one Apply call did.
//
// Every Outcome names the file and the change. Backup is set whenever a
// backup was taken, including when a later step failed.
type Outcome struct {
	OperationID string
	Path        string
	Editor      string
	Status      Status
	Description string
	Diff        string
	Notes       []string
	Backup      *backup.Backup
	Propagation *executor.Result
	Err         error
}

// ErrorKind classifies Err.
func (o Outcome) ErrorKind() faults.Kind {
	return faults.KindOf(o.Err)
}

// Failed reports whether the operation ended in StatusFailed.
func (o Outcome) Failed() bool { return o.Status == StatusFailed }

type outcomeJSON struct {
	OperationID string           `json:"operation_id"`
	Path        string           `json:"path"`
	Editor      string           `json:"editor"`
	Status      Status           `json:"status"`
	Description string           `json:"description,omitempty"`
	Diff        string           `json:"diff,omitempty"`
	Notes       []string         `json:"notes,omitempty"`
	Backup      *backup.Backup   `json:"backup,omitempty"`
	Propagation *executor.Result `json:"propagation,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorKind   faults.Kind      `json:"error_kind,omitempty"`
}

// MarshalJSON renders Err as a string along with its kind.
func (o Outcome) MarshalJSON() ([]byte, error) {
	out := outcomeJSON{
		OperationID: o.OperationID,
		Path:        o.Path,
		Editor:      o.Editor,
		Status:      o.Status,
		Description: o.Description,
		Diff:        o.Diff,
		Notes:       o.Notes,
		Backup:      o.Backup,
		Propagation: o.Propagation,
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
		out.ErrorKind = o.ErrorKind()
	}
	return json.Marshal(out)
}
