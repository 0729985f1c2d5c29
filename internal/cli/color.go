package cli

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ANSI 256 colors for broad terminal compatibility.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	// Error code style (e.g., E3002)
	styleCode = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	// Diff marker styles
	styleAdd    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleModify = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleDrop   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	// Table styles
	styleHeader = lipgloss.NewStyle().Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var (
	colorOnce    sync.Once
	colorEnabled bool
	colorForced  *bool
)

// SetColors overrides terminal detection; used by the --no-color flag.
func SetColors(enabled bool) {
	colorForced = &enabled
}

// EnableColors reports whether styled output should be emitted. Honors
// NO_COLOR and falls back to plain text when stdout is not a terminal.
func EnableColors() bool {
	if colorForced != nil {
		return *colorForced
	}
	colorOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			colorEnabled = false
			return
		}
		fd := os.Stdout.Fd()
		colorEnabled = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	})
	return colorEnabled
}

// Styled text functions - these check EnableColors() internally.

// Error returns text styled as an error label.
func Error(s string) string {
	if !EnableColors() {
		return s
	}
	return styleError.Render(s)
}

// Warning returns text styled as a warning label.
func Warning(s string) string {
	if !EnableColors() {
		return s
	}
	return styleWarning.Render(s)
}

// Success returns text styled as a success message.
func Success(s string) string {
	if !EnableColors() {
		return s
	}
	return styleSuccess.Render(s)
}

// Info returns text styled as informational text.
func Info(s string) string {
	if !EnableColors() {
		return s
	}
	return styleInfo.Render(s)
}

// Code returns text styled as an error code.
func Code(s string) string {
	if !EnableColors() {
		return s
	}
	return styleCode.Render(s)
}

// Add returns text styled as a schema addition.
func Add(s string) string {
	if !EnableColors() {
		return s
	}
	return styleAdd.Render(s)
}

// Modify returns text styled as a schema modification.
func Modify(s string) string {
	if !EnableColors() {
		return s
	}
	return styleModify.Render(s)
}

// Drop returns text styled as a schema drop.
func Drop(s string) string {
	if !EnableColors() {
		return s
	}
	return styleDrop.Render(s)
}

// Header returns text styled as a table header.
func Header(s string) string {
	if !EnableColors() {
		return s
	}
	return styleHeader.Render(s)
}

// Dim returns text styled as dim/muted.
func Dim(s string) string {
	if !EnableColors() {
		return s
	}
	return styleDim.Render(s)
}
