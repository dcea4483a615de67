// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mutation implements the safe-apply operation for configuration
// files: read, propose, confirm, back up, write atomically, propagate.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/backup"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/editor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/executor"
	"github.com/AleutianAI/ghenotweaks/cmd/ghenotweaks/internal/faults"
	"github.com/AleutianAI/ghenotweaks/pkg/logging"
)

// ErrNoGate is returned in an Outcome when the Orchestrator has no
// confirmation gate.
var ErrNoGate = errors.New("no confirmation gate configured")

// =============================================================================
// Apply Options
// =============================================================================

// ApplyOptions configures one Apply call.
type ApplyOptions struct {
	// Propagate is run after a successful write, e.g. {"sysctl", "--system"}.
	// Empty means no propagation.
	Propagate []string

	// DryRun computes the proposal and its diff without asking for
	// confirmation, taking a backup, or writing.
	DryRun bool

	// Preface lines are shown above the diff in the confirmation prompt,
	// e.g. the current value of a parameter.
	Preface []string
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator composes a backup.Manager, an editor, a confirmation gate and
// an executor into one safe-apply operation.
//
// # Description
//
// Apply never writes a file unless the gate accepted the change and a
// verified backup of the current content exists. Writes are atomic. Every
// error is turned into an Outcome.
//
// # Thread Safety
//
// Orchestrator is safe for concurrent use. Apply calls on the same path are
// serialized.
type Orchestrator struct {
	backups backup.Manager
	exec    executor.Executor
	gate    editor.Confirmer
	logger  *logging.Logger

	rename renameFunc
	newID  func() string

	// fileLocks serializes operations per path.
	fileLocks   map[string]*sync.Mutex
	fileLocksMu sync.Mutex
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Default: logging.Nop().
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRename replaces os.Rename for the final step of a write.
func WithRename(rename func(oldpath, newpath string) error) Option {
	return func(o *Orchestrator) {
		if rename != nil {
			o.rename = rename
		}
	}
}

// WithIDGenerator replaces the uuid operation ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// New creates an Orchestrator.
//
// # Inputs
//
//   - backups: Takes the snapshot before any write. Required.
//   - exec: Runs propagation commands. May be nil if no Apply call
//     propagates.
//   - gate: Asks the user. Passed to editors for per-row decisions as well.
func New(backups backup.Manager, exec executor.Executor, gate editor.Confirmer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backups:   backups,
		exec:      exec,
		gate:      gate,
		logger:    logging.Nop(),
		rename:    os.Rename,
		newID:     func() string { return uuid.NewString() },
		fileLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Apply runs one safe-apply operation on path.
//
// # Description
//
// Steps, each of which can end the operation:
//
//  1. Resolve symlinks and read the target. Missing file is a
//     NotFoundError.
//  2. Ask the editor for a proposal. Validation errors fail here, before
//     any confirmation.
//  3. No change: StatusNoChange.
//  4. DryRun: StatusPreviewed with the diff.
//  5. Confirm with a prompt naming the path, the change and the diff.
//     Decline: StatusSkippedByUser.
//  6. Back up. Failure: StatusFailed, nothing written.
//  7. Write atomically. Failure: StatusFailed, original intact.
//  8. Run opts.Propagate. Failure: StatusPropagationFailed, file kept.
//
// # Outputs
//
//   - Outcome: Always populated with OperationID, Path and Editor.
func (o *Orchestrator) Apply(ctx context.Context, path string, ed editor.Editor, opts ApplyOptions) Outcome {
	out := Outcome{
		OperationID: o.newID(),
		Path:        path,
		Editor:      ed.Name(),
	}
	log := o.logger.With("operation_id", out.OperationID, "path", path, "editor", out.Editor)

	fail := func(err error) Outcome {
		out.Status = StatusFailed
		out.Err = err
		log.Error("operation failed", "error", err, "kind", string(faults.KindOf(err)))
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if o.gate == nil && !opts.DryRun {
		return fail(ErrNoGate)
	}

	target, err := resolveTarget(path)
	if err != nil {
		return fail(err)
	}
	if target != path {
		log = log.With("target", target)
		out.Notes = append(out.Notes, fmt.Sprintf("%s is a symlink, writing to %s", path, target))
	}

	unlock := o.lockFile(target)
	defer unlock()

	content, mode, err := readTarget(target)
	if err != nil {
		return fail(err)
	}

	proposal, err := ed.Propose(ctx, content, o.gate)
	if err != nil {
		return fail(withPath(err, path))
	}
	out.Description = proposal.Description
	out.Notes = append(out.Notes, proposal.Notes...)

	if proposal.NoChange() {
		out.Status = StatusNoChange
		log.Info("no change needed", "description", proposal.Description)
		return out
	}

	diffText, err := proposal.UnifiedDiff(path)
	if err != nil {
		return fail(fmt.Errorf("render diff: %w", err))
	}
	out.Diff = diffText

	if opts.DryRun {
		out.Status = StatusPreviewed
		log.Info("dry run", "description", proposal.Description)
		return out
	}

	ok, err := o.gate.Confirm(ctx, confirmPrompt(path, proposal.Description, diffText, opts.Preface))
	if err != nil {
		return fail(fmt.Errorf("confirm %s: %w", path, err))
	}
	if !ok {
		out.Status = StatusSkippedByUser
		log.Info("declined by user", "description", proposal.Description)
		return out
	}

	// Backups stay keyed by the configured path so list and restore find
	// them; the content is read through the link.
	b, err := o.backups.Backup(path)
	if err != nil {
		return fail(err)
	}
	out.Backup = &b
	log.Info("backup created", "backup", b.Path, "size", b.Size)

	if err := atomicWriteFile(target, []byte(proposal.Content), mode, o.rename); err != nil {
		return fail(err)
	}
	log.Info("file written", "description", proposal.Description)

	if len(opts.Propagate) > 0 {
		if o.exec == nil {
			out.Status = StatusPropagationFailed
			out.Err = fmt.Errorf("propagate %s: no executor configured", faults.FormatArgv(opts.Propagate))
			log.Error("propagation failed", "error", out.Err)
			return out
		}
		res, err := o.exec.Execute(ctx, opts.Propagate, true)
		out.Propagation = &res
		if err != nil {
			out.Status = StatusPropagationFailed
			out.Err = err
			log.Warn("propagation failed",
				"command", faults.FormatArgv(opts.Propagate),
				"exit_code", res.ExitCode,
				"stderr", strings.TrimSpace(res.Stderr))
			return out
		}
		log.Info("propagated", "command", faults.FormatArgv(opts.Propagate), "duration", res.Duration)
	}

	out.Status = StatusApplied
	return out
}

// lockFile acquires the per-path mutex and returns its release function.
func (o *Orchestrator) lockFile(path string) func() {
	o.fileLocksMu.Lock()
	mu, ok := o.fileLocks[path]
	if !ok {
		mu = &sync.Mutex{}
		o.fileLocks[path] = mu
	}
	o.fileLocksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// resolveTarget follows path when it is a symlink, so the write replaces
// the file the link points to rather than the link itself. Symlinked
// parent directories need no resolving.
func resolveTarget(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &faults.NotFoundError{Path: path, Err: err}
		}
		return "", &faults.IOError{Op: "stat", Path: path, Err: err}
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return path, nil
	}

	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &faults.NotFoundError{Path: path, Err: err}
		}
		return "", &faults.IOError{Op: "resolve", Path: path, Err: err}
	}
	return target, nil
}

// readTarget reads a regular file and its permission bits.
func readTarget(path string) (string, fs.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, &faults.NotFoundError{Path: path, Err: err}
		}
		return "", 0, &faults.IOError{Op: "stat", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", 0, &faults.IOError{Op: "read", Path: path, Err: fmt.Errorf("not a regular file (%s)", info.Mode().Type())}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, &faults.IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), info.Mode(), nil
}

// withPath fills in the Path of a ValidationError raised by an editor.
func withPath(err error, path string) error {
	var v *faults.ValidationError
	if errors.As(err, &v) && v.Path == "" {
		v.Path = path
	}
	return err
}

// confirmPrompt builds the file-level question. The last line is the
// question itself.
func confirmPrompt(path, description, diffText string, preface []string) string {
	var b strings.Builder
	for _, line := range preface {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if diffText != "" {
		b.WriteString(strings.TrimRight(diffText, "\n"))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Apply to %s: %s?", path, description)
	return b.String()
}
