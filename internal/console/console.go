// SPDX-License-Identifier: MPL-2.0

// Package console provides the operator-facing logger and stage banners.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// SuccessLevel sits between info and warn so success lines are hidden only
// when warnings are.
const SuccessLevel = log.Level(2)

var (
	colorInfo    = lipgloss.Color("#06B6D4")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMuted)
)

// New returns a logger writing to w. Debug lines are shown only when verbose.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{Level: level})
	logger.SetStyles(Styles())
	return logger
}

// Styles returns log styles with a symbol per level.
func Styles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels = map[log.Level]lipgloss.Style{
		log.DebugLevel: lipgloss.NewStyle().SetString("·").Foreground(colorMuted),
		log.InfoLevel:  lipgloss.NewStyle().SetString("ℹ").Foreground(colorInfo),
		SuccessLevel:   lipgloss.NewStyle().SetString("✓").Foreground(colorSuccess),
		log.WarnLevel:  lipgloss.NewStyle().SetString("⚠").Foreground(colorWarning),
		log.ErrorLevel: lipgloss.NewStyle().SetString("✗").Foreground(colorError),
		log.FatalLevel: lipgloss.NewStyle().SetString("✗").Bold(true).Foreground(colorError),
	}
	styles.Key = lipgloss.NewStyle().Foreground(colorMuted)
	return styles
}

// Success logs msg at SuccessLevel.
func Success(logger *log.Logger, msg string, keyvals ...any) {
	logger.Log(SuccessLevel, msg, keyvals...)
}

// Section writes a numbered stage banner such as "STEP 2: Building packages".
func Section(w io.Writer, step int, title string) {
	Banner(w, fmt.Sprintf("STEP %d: %s", step, strings.TrimSpace(title)))
}

// Banner writes title as a heading preceded by a blank line.
func Banner(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, sectionStyle.Render(title))
}
