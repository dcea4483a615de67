// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/mutation"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/tweak"
	"github.com/AleutianAI/ghenotweaks/pkg/ux"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Applied, skipped or previewed
	CLIExitFindings = 1 // File written but its reload command failed
	CLIExitError    = 2 // Operation failed
)

const apiVersion = "1.0"

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string    `json:"api_version"`
	Command    string    `json:"command"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	ExitCode   int       `json:"exit_code"`
	Data       any       `json:"data,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// OutputJSON writes data as indented JSON to w.
func OutputJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// reporter renders results as they arrive and tracks the exit code.
//
// In JSON mode nothing is printed until flush, which writes one
// CommandResult holding every result.
type reporter struct {
	printer  *ux.Printer
	jsonMode bool

	results  []any
	applied  int
	skipped  int
	failed   int
	exitCode int
}

func newReporter(w io.Writer, plain, jsonMode bool) *reporter {
	return &reporter{
		printer:  ux.NewPrinter(w, plain || jsonMode),
		jsonMode: jsonMode,
	}
}

// outcome records a file edit.
func (r *reporter) outcome(o mutation.Outcome) {
	r.results = append(r.results, o)
	r.count(o.Status)
	if r.jsonMode {
		return
	}

	reason := string(o.Status)
	if o.Description != "" {
		reason += ": " + o.Description
	}
	r.printer.FileStatus(o.Path, statusIcon(o.Status), reason)
	if o.Status == mutation.StatusPreviewed {
		r.printer.Diff(o.Diff)
	}
	if o.Backup != nil {
		r.printer.Info(fmt.Sprintf("backup: %s", o.Backup.Path))
	}
	if o.Propagation != nil && o.Status == mutation.StatusApplied {
		r.printer.Info(fmt.Sprintf("ran: %s", faults.FormatArgv(o.Propagation.Argv)))
	}
	for _, note := range o.Notes {
		r.printer.Info(note)
	}
	r.reportErr(o.Status, o.Err)
}

// action records a command-only tweak.
func (r *reporter) action(res tweak.ActionResult) {
	r.results = append(r.results, res)
	r.count(res.Status)
	if r.jsonMode {
		return
	}

	reason := string(res.Status)
	if res.Description != "" {
		reason += ": " + res.Description
	}
	r.printer.FileStatus(res.Action, statusIcon(res.Status), reason)
	for _, argv := range res.Planned {
		r.printer.Info(fmt.Sprintf("would run: %s", faults.FormatArgv(argv)))
	}
	for _, note := range res.Notes {
		r.printer.Info(note)
	}
	r.reportErr(res.Status, res.Err)
}

// data records a value that is not a tweak result, such as a backup list.
// render prints it in human mode.
func (r *reporter) data(v any, render func(p *ux.Printer)) {
	r.results = append(r.results, v)
	if !r.jsonMode && render != nil {
		render(r.printer)
	}
}

// fail records an error that stopped one tweak but not the command.
func (r *reporter) fail(err error) {
	r.failed++
	r.raise(CLIExitError)
	if r.jsonMode {
		r.results = append(r.results, map[string]string{"error": err.Error()})
		return
	}
	r.printer.Error(err.Error())
}

// info prints a message in human mode only.
func (r *reporter) info(msg string) {
	if !r.jsonMode {
		r.printer.Info(msg)
	}
}

func (r *reporter) reportErr(status mutation.Status, err error) {
	if err == nil {
		return
	}
	if status == mutation.StatusPropagationFailed {
		r.printer.Warning(fmt.Sprintf("file written, but the reload command failed: %v", err))
		return
	}
	r.printer.Error(err.Error())
}

func (r *reporter) count(status mutation.Status) {
	switch {
	case status == mutation.StatusFailed:
		r.failed++
		r.raise(CLIExitError)
	case status == mutation.StatusPropagationFailed:
		r.applied++
		r.raise(CLIExitFindings)
	case status.Wrote():
		r.applied++
	default:
		r.skipped++
	}
}

func (r *reporter) raise(code int) {
	if code > r.exitCode {
		r.exitCode = code
	}
}

// flush writes the JSON envelope, or a summary line when more than one
// tweak ran.
func (r *reporter) flush(command string, start time.Time) error {
	if r.jsonMode {
		return OutputJSON(r.printer.Writer(), CommandResult{
			APIVersion: apiVersion,
			Command:    command,
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    r.exitCode != CLIExitError,
			ExitCode:   r.exitCode,
			Data:       r.results,
		})
	}
	if r.applied+r.skipped+r.failed > 1 {
		r.printer.Summary(r.applied, r.skipped, r.failed)
	}
	return nil
}

func statusIcon(status mutation.Status) ux.Icon {
	switch status {
	case mutation.StatusApplied:
		return ux.IconSuccess
	case mutation.StatusPropagationFailed:
		return ux.IconWarning
	case mutation.StatusFailed:
		return ux.IconError
	case mutation.StatusPreviewed:
		return ux.IconPending
	default:
		return ux.IconSkipped
	}
}
