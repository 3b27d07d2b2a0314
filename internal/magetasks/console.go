package magetasks

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Out is where task output goes.
var Out io.Writer = os.Stdout

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// PrintH1Header prints a top-level header.
func PrintH1Header(title string) {
	const width = 60
	rule := strings.Repeat("=", width)
	pad := max((width-len(title))/2, 0)
	fmt.Fprintf(Out, "\n%s\n%s%s\n%s\n\n", rule, strings.Repeat(" ", pad), headerStyle.Render(title), rule)
}

// PrintH2Header prints a section header.
func PrintH2Header(title string) {
	fmt.Fprintf(Out, "\n%s\n", headerStyle.Render("=== "+title+" ==="))
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) { fmt.Fprintln(Out, successStyle.Render("✓ "+msg)) }

// PrintWarning prints a warning message.
func PrintWarning(msg string) { fmt.Fprintln(Out, warningStyle.Render("! "+msg)) }

// PrintError prints an error message.
func PrintError(msg string) { fmt.Fprintln(Out, errorStyle.Render("✗ "+msg)) }
