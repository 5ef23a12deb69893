package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/plugtower/pkg/scheduler"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconActive  = lipgloss.NewStyle().Foreground(colorCyan)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconPending = "·"
	iconActive  = "◌"
)

// statusIcon renders the icon for a task status.
func statusIcon(s scheduler.Status) string {
	switch s {
	case scheduler.StatusDone:
		return styleIconSuccess.Render(iconSuccess)
	case scheduler.StatusFailed:
		return styleIconError.Render(iconError)
	case scheduler.StatusActive:
		return styleIconActive.Render(iconActive)
	default:
		return StyleDim.Render(iconPending)
	}
}

// =============================================================================
// Status Output
// =============================================================================

func fprintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func fprintError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func fprintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func fprintInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// fprintDetail prints an indented, dimmed line.
func fprintDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// fprintFile prints a file output line.
func fprintFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// fprintKeyValue prints a labeled value.
func fprintKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// fprintNextStep prints a suggested next command.
func fprintNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Run Report
// =============================================================================

// pastTense maps an operation to the verb used in the summary line.
func pastTense(op string) string {
	switch op {
	case "install":
		return "Installed"
	case "update":
		return "Updated"
	case "remove":
		return "Removed"
	}
	return "Processed"
}

// writeReport prints the outcome of a run: a summary line, every failure
// with its message, and the command that resubmits exactly the failed
// targets.
func writeReport(w io.Writer, r scheduler.Report) {
	if r.Total == 0 {
		fprintInfo(w, "Nothing to %s", r.Op)
		return
	}

	summary := fmt.Sprintf("%s %s of %s packages", pastTense(r.Op),
		StyleNumber.Render(fmt.Sprint(r.Success)), StyleNumber.Render(fmt.Sprint(r.Total)))
	if r.Failed() || r.Aborted {
		fprintError(w, "%s", summary)
	} else {
		fprintSuccess(w, "%s", summary)
	}

	var parts []string
	if n := len(r.Failures); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if len(parts) > 0 {
		fprintDetail(w, "%s", strings.Join(parts, " · "))
	}
	if r.Aborted {
		fprintWarning(w, "Run aborted")
	}

	for _, f := range r.Failures {
		fprintError(w, "%s", StyleValue.Render(f.Target))
		for _, line := range strings.Split(f.Message, "\n") {
			fprintDetail(w, "%s", line)
		}
	}
	if r.Failed() {
		fmt.Fprintln(w)
		fprintNextStep(w, "Retry the failed packages", retryCommand(r))
	}
}

// retryCommand returns the command line that resubmits the failed targets.
func retryCommand(r scheduler.Report) string {
	return fmt.Sprintf("%s %s --only %s", appName, r.Op, strings.Join(r.FailedTargets(), ","))
}
