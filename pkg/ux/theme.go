// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// HuhTheme returns the form theme used for interactive prompts.
func HuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	cream := lipgloss.Color("#FFFDF5")

	t.Focused.Base = t.Focused.Base.BorderForeground(ColorTealDeep)
	t.Focused.Title = t.Focused.Title.Foreground(ColorTealBright).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorSlate)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ColorError)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorTealPrimary)
	t.Focused.Option = t.Focused.Option.Foreground(ColorTealPrimary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorTealBright)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(cream).Background(ColorTealDeep)
	t.Focused.BlurredButton = t.Focused.BlurredButton.Foreground(ColorTealPrimary).Background(ColorSlate)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Focused.Base.BorderStyle(lipgloss.HiddenBorder())

	return t
}
