// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tweak

import (
	"encoding/json"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/executor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/mutation"
)

// ActionResult reports a command-only tweak. It uses the same statuses as
// mutation.Outcome, except StatusPropagationFailed.
type ActionResult struct {
	Action      string
	Status      mutation.Status
	Description string
	Notes       []string

	// Commands holds every command that ran, read-only checks included.
	Commands []executor.Result

	// Planned lists the mutating commands a dry run would have run.
	Planned [][]string

	Err error
}

// Failed reports whether the action ended in StatusFailed.
func (r ActionResult) Failed() bool { return r.Status == mutation.StatusFailed }

// MarshalJSON renders Err as a string along with its kind.
func (r ActionResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Action      string            `json:"action"`
		Status      mutation.Status   `json:"status"`
		Description string            `json:"description,omitempty"`
		Notes       []string          `json:"notes,omitempty"`
		Commands    []executor.Result `json:"commands,omitempty"`
		Planned     [][]string        `json:"planned,omitempty"`
		Error       string            `json:"error,omitempty"`
		ErrorKind   faults.Kind       `json:"error_kind,omitempty"`
	}{
		Action:      r.Action,
		Status:      r.Status,
		Description: r.Description,
		Notes:       r.Notes,
		Commands:    r.Commands,
		Planned:     r.Planned,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.ErrorKind = faults.KindOf(r.Err)
	}
	return json.Marshal(out)
}

// action accumulates an ActionResult.
type action struct {
	ActionResult
}

func newAction(name, description string) *action {
	return &action{ActionResult{Action: name, Description: description}}
}

func (a *action) record(res executor.Result) {
	a.Commands = append(a.Commands, res)
}

func (a *action) note(msg string) {
	a.Notes = append(a.Notes, msg)
}

func (a *action) finish(status mutation.Status) ActionResult {
	a.Status = status
	return a.ActionResult
}

func (a *action) fail(err error) ActionResult {
	a.Status = mutation.StatusFailed
	a.Err = err
	return a.ActionResult
}
