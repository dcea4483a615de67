// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// InteractivePrompter asks questions over a line-oriented reader.
//
// # Description
//
// Confirm accepts y, yes, s and sim in any case as yes. Anything else,
// including an empty line or EOF, is no. Select reads a 1-based option
// number.
//
// The context is checked before each read. A read that is already blocked
// is not interrupted.
type InteractivePrompter struct {
	mu     sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

// NewInteractivePrompter reads from os.Stdin and writes to os.Stdout.
func NewInteractivePrompter() *InteractivePrompter {
	return NewInteractivePrompterWithIO(os.Stdin, os.Stdout)
}

// NewInteractivePrompterWithIO reads from r and writes prompts to w.
func NewInteractivePrompterWithIO(r io.Reader, w io.Writer) *InteractivePrompter {
	return &InteractivePrompter{reader: bufio.NewReader(r), writer: w}
}

// Confirm implements Prompter.
func (p *InteractivePrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.writer, "%s [y/N]: ", prompt)

	line, err := p.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.writer)
			return false, nil
		}
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return isYes(line), nil
}

// Select implements Prompter.
func (p *InteractivePrompter) Select(ctx context.Context, prompt string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return -1, err
	}

	fmt.Fprintln(p.writer, prompt)
	for i, opt := range options {
		fmt.Fprintf(p.writer, "  %d. %s\n", i+1, opt)
	}
	fmt.Fprintf(p.writer, "Enter choice [1-%d]: ", len(options))

	line, err := p.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.writer)
			return -1, ErrCancelled
		}
		return -1, err
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(options) {
		return -1, fmt.Errorf("%w: %q", ErrInvalidSelection, strings.TrimSpace(line))
	}
	return choice - 1, nil
}

// Input implements Prompter. EOF cancels.
func (p *InteractivePrompter) Input(ctx context.Context, prompt, def string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if def != "" {
		fmt.Fprintf(p.writer, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(p.writer, "%s: ", prompt)
	}

	line, err := p.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.writer)
			return "", ErrCancelled
		}
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if line = strings.TrimSpace(line); line == "" {
		return def, nil
	}
	return line, nil
}

// IsInteractive returns true.
func (p *InteractivePrompter) IsInteractive() bool { return true }

// readLine returns one line without its terminator. A final line without a
// newline is returned normally; io.EOF is returned only when nothing was
// read.
func (p *InteractivePrompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}
