// Package style provides consistent terminal styling for the fitchat CLI.
// Help output follows the look of Python's Typer.
package style

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// ANSI palette
const (
	Red     = lipgloss.Color("1")
	Green   = lipgloss.Color("2")
	Yellow  = lipgloss.Color("11")
	Blue    = lipgloss.Color("4")
	Magenta = lipgloss.Color("5")
	Cyan    = lipgloss.Color("6")
	Gray    = lipgloss.Color("8")
)

// NoColor disables colors (for non-TTY or FITCHAT_NO_COLOR)
var NoColor = false

func init() {
	if os.Getenv("FITCHAT_NO_COLOR") != "" || os.Getenv("NO_COLOR") != "" {
		NoColor = true
	}
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			NoColor = true
		}
	}
}

// C wraps text with color, respecting NoColor
func C(color lipgloss.Color, text string) string {
	if NoColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// B makes text bold
func B(text string) string {
	if NoColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

// Title renders a bold cyan heading.
func Title(text string) string {
	if NoColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(Cyan).Render(text)
}

// Dim renders secondary text.
func Dim(text string) string {
	return C(Gray, text)
}

// Success formats a success label
func Success(label string) string {
	return C(Green, label+":") + " "
}

// Check and Cross mark passed and failed checks.
func Check() string { return C(Green, "✓") }
func Cross() string { return C(Red, "✗") }
func Warn() string  { return C(Yellow, "⚠") }

// Prompt renders the "? Question" lead used by interactive prompts.
func Prompt(question string) string {
	return C(Green, "?") + " " + question
}

// SetupHelp configures Typer-style help templates for a Cobra command
func SetupHelp(cmd *cobra.Command) {
	cobra.AddTemplateFunc("styleHeading", styleHeading)
	cobra.AddTemplateFunc("styleCommand", styleCommand)
	cobra.AddTemplateFunc("rpadStyled", rpadStyled)

	cmd.SetUsageTemplate(usageTemplate)
	cmd.SetHelpTemplate(helpTemplate)
}

func styleHeading(s string) string {
	if NoColor {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Foreground(Magenta).Render(s)
}

func styleCommand(s string) string {
	return C(Cyan, s)
}

func rpadStyled(s string, padding int) string {
	styled := styleCommand(s)
	// pad on the raw width, escape codes take no columns
	padLen := padding - lipgloss.Width(s)
	if padLen > 0 {
		return styled + strings.Repeat(" ", padLen)
	}
	return styled
}

const usageTemplate = `{{ styleHeading "Usage:" }}
  {{ styleCommand .UseLine }}{{if .HasAvailableSubCommands}} [command]{{end}}
{{if .HasAvailableSubCommands}}
{{ styleHeading "Commands:" }}{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpadStyled .Name .NamePadding }}  {{.Short}}{{end}}{{end}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

const helpTemplate = `{{if .Long}}{{.Long}}

{{else if .Short}}{{.Short}}

{{end}}{{ styleHeading "Usage:" }}
  {{ styleCommand .UseLine }}{{if .HasAvailableSubCommands}} [command]{{end}}
{{if .HasExample}}
{{ styleHeading "Examples:" }}
{{.Example}}
{{end}}{{if .HasAvailableSubCommands}}
{{ styleHeading "Commands:" }}{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpadStyled .Name .NamePadding }}  {{.Short}}{{end}}{{end}}
{{end}}{{if .HasAvailableLocalFlags}}
{{ styleHeading "Options:" }}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if .HasAvailableInheritedFlags}}
{{ styleHeading "Global Options:" }}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if .HasAvailableSubCommands}}
Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`
