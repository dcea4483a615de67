// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the ghenotweaks CLI.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text, borders

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffHunk   lipgloss.Style
	DiffHeader lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),

	DiffAdd:    lipgloss.NewStyle().Foreground(ColorSuccess),
	DiffRemove: lipgloss.NewStyle().Foreground(ColorError),
	DiffHunk:   lipgloss.NewStyle().Foreground(ColorTealPrimary),
	DiffHeader: lipgloss.NewStyle().Bold(true),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconSkipped Icon = "–"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending, IconSkipped:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes styled or plain output to a writer.
//
// In plain mode nothing is styled and every line carries a stable prefix
// (OK:, WARN:, ERROR:) so output can be parsed by scripts.
type Printer struct {
	w     io.Writer
	plain bool
}

// NewPrinter creates a Printer. plain disables styling.
func NewPrinter(w io.Writer, plain bool) *Printer {
	return &Printer{w: w, plain: plain}
}

// Plain reports whether the printer is in plain mode.
func (p *Printer) Plain() bool { return p.plain }

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Title prints a styled title. Plain mode prints nothing.
func (p *Printer) Title(text string) {
	if p.plain {
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message
func (p *Printer) Error(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Info prints an informational message
func (p *Printer) Info(text string) {
	if p.plain {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints secondary text. Plain mode prints nothing.
func (p *Printer) Muted(text string) {
	if p.plain {
		return
	}
	fmt.Fprintln(p.w, Styles.Muted.Render(text))
}

// Box prints text in a rounded box
func (p *Printer) Box(title, content string) {
	if p.plain {
		fmt.Fprintf(p.w, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Width(72).Render(Styles.Title.Render(title)+"\n"+content))
}

// WarningBox prints text in a warning-styled box
func (p *Printer) WarningBox(title, content string) {
	if p.plain {
		fmt.Fprintf(p.w, "WARN %s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.WarningBox.Width(72).Render(Styles.Warning.Bold(true).Render(title)+"\n"+content))
}

// FileStatus prints a path with a status icon and an optional reason.
func (p *Printer) FileStatus(path string, status Icon, reason string) {
	if p.plain {
		fmt.Fprintf(p.w, "%s\t%s\t%s\n", status, path, reason)
		return
	}
	if reason != "" {
		fmt.Fprintf(p.w, "%s %s %s\n", status.Render(), path, Styles.Muted.Render("("+reason+")"))
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", status.Render(), path)
}

// Summary prints a summary line with counts
func (p *Printer) Summary(applied, skipped, failed int) {
	if p.plain {
		fmt.Fprintf(p.w, "SUMMARY: applied=%d skipped=%d failed=%d\n", applied, skipped, failed)
		return
	}
	fmt.Fprintf(p.w, "\n%s %s  %s %s  %s %s\n",
		Styles.Success.Render(fmt.Sprintf("%d", applied)), Styles.Muted.Render("applied"),
		Styles.Warning.Render(fmt.Sprintf("%d", skipped)), Styles.Muted.Render("skipped"),
		Styles.Error.Render(fmt.Sprintf("%d", failed)), Styles.Muted.Render("failed"),
	)
}

// Diff prints a unified diff, colouring added and removed lines.
func (p *Printer) Diff(diff string) {
	if diff == "" {
		return
	}
	fmt.Fprint(p.w, RenderDiff(diff, p.plain))
	if !strings.HasSuffix(diff, "\n") {
		fmt.Fprintln(p.w)
	}
}

// RenderDiff styles a unified diff line by line. plain returns it as is.
func RenderDiff(diff string, plain bool) string {
	if plain {
		return diff
	}
	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = Styles.DiffHeader.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = Styles.DiffHunk.Render(text)
		case strings.HasPrefix(text, "+"):
			text = Styles.DiffAdd.Render(text)
		case strings.HasPrefix(text, "-"):
			text = Styles.DiffRemove.Render(text)
		case strings.HasPrefix(text, `\`):
			text = Styles.Muted.Render(text)
		}
		b.WriteString(text)
		if strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
