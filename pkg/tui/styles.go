// Package tui implements a terminal inspector for dialogue sessions: it
// drives an interpreter.Interpreter directly (no server, no RPC) and
// renders each turn's message, state, and available intents.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var stateBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

var transcriptPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorDim)

var botMessageStyle = lipgloss.NewStyle().
	Foreground(colorWhite)

var userMessageStyle = lipgloss.NewStyle().
	Foreground(colorCyan)

var intentBarStyle = lipgloss.NewStyle().
	Foreground(colorDim).
	Padding(0, 1)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)

var finishedStyle = lipgloss.NewStyle().
	Foreground(colorGreen).
	Bold(true)

var keyStyle = lipgloss.NewStyle().
	Foreground(colorCyan).
	Bold(true)

var keyDescStyle = lipgloss.NewStyle().
	Foreground(colorDim)

var keyBarStyle = lipgloss.NewStyle().
	Padding(0, 1)
