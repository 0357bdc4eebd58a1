// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/railwise/railwise/internal/transit"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// severityStyle colours a line-status severity: good service green, planned
// closures and suspensions red, everything else amber.
func severityStyle(severity int) lipgloss.Style {
	switch {
	case severity == transit.GoodServiceSeverity:
		return successStyle
	case severity <= 6 || severity == 20:
		return errorStyle
	default:
		return warnStyle
	}
}
