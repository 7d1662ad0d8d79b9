package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/grovetools/runner/tui/theme"
)

// HelpExtrasFunc renders additional help sections after COMMANDS.
type HelpExtrasFunc func(w io.Writer, t *theme.Theme)

var (
	helpExtras   = make(map[*cobra.Command]HelpExtrasFunc)
	helpExtrasMu sync.RWMutex
)

const (
	maxWidth = 72
	minWidth = 40
)

// getTerminalWidth returns the stdout width capped at maxWidth.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	if width > maxWidth {
		return maxWidth
	}
	return width
}

// wrapText wraps text to width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}

		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// SetStyledHelp applies runner's help layout to a command.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// SetStyledHelpWithExtras applies the styled help and registers an extra
// section rendered after the command list.
func SetStyledHelpWithExtras(cmd *cobra.Command, extras HelpExtrasFunc) {
	helpExtrasMu.Lock()
	helpExtras[cmd] = extras
	helpExtrasMu.Unlock()
	cmd.SetHelpFunc(styledHelpFunc)
}

// PrintError prints a styled error line with a help hint to stderr.
func PrintError(cmd *cobra.Command, err error) {
	t := theme.DefaultTheme
	red := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Red)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", red.Render("Error:"), err.Error())
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", t.Muted.Render(fmt.Sprintf("Run '%s --help' for usage.", cmd.CommandPath())))
}

// parseDescription splits a long description at an "Examples:" marker.
func parseDescription(long string) (description string, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return long, ""
}

func renderExamples(w io.Writer, t *theme.Theme, examples string, cmdPath string) {
	rootCmd := strings.Split(cmdPath, " ")[0]
	main := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Cyan)
	sub := lipgloss.NewStyle().Foreground(t.Colors.Cyan)
	flag := lipgloss.NewStyle().Foreground(t.Colors.Violet)

	for _, line := range strings.Split(examples, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(trimmed, "#"):
			fmt.Fprintln(w, " "+t.Muted.Render(trimmed))
		default:
			fmt.Fprintln(w, " "+styleCommandLine(trimmed, rootCmd, main, sub, flag))
		}
	}
}

// styleCommandLine colors the program name, subcommand and flags of an
// example invocation.
func styleCommandLine(line, rootCmd string, mainStyle, subStyle, flagStyle lipgloss.Style) string {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return line
	}

	result := make([]string, 0, len(parts))
	for i, part := range parts {
		switch {
		case i == 0 && part == rootCmd:
			result = append(result, mainStyle.Render(part))
		case i == 1 && !strings.HasPrefix(part, "-"):
			result = append(result, subStyle.Render(part))
		case strings.HasPrefix(part, "-"):
			result = append(result, flagStyle.Render(part))
		default:
			result = append(result, part)
		}
	}
	return "  " + strings.Join(result, " ")
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	t := theme.DefaultTheme
	name := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Cyan)
	section := lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Yellow)
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Yellow)
	italic := lipgloss.NewStyle().Italic(true)

	width := getTerminalWidth() - 2

	fmt.Fprintln(w, " "+title.Render(strings.ToUpper(cmd.CommandPath())))

	var description, examples string
	if cmd.Long != "" {
		description, examples = parseDescription(cmd.Long)
	} else {
		description = cmd.Short
	}

	if cmd.Short != "" {
		for _, line := range strings.Split(wrapText(cmd.Short, width), "\n") {
			fmt.Fprintln(w, " "+italic.Render(line))
		}
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(w)
		for _, line := range strings.Split(wrapText(description, width), "\n") {
			fmt.Fprintln(w, " "+line)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Fprintln(w, "\n "+section.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Fprintf(w, " %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Fprintf(w, " %s [command]\n", cmd.CommandPath())
		}
	}

	if cmd.HasAvailableSubCommands() {
		maxLen := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() && len(sub.Name()) > maxLen {
				maxLen = len(sub.Name())
			}
		}

		fmt.Fprintln(w, "\n "+section.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				padding := strings.Repeat(" ", maxLen-len(sub.Name()))
				fmt.Fprintf(w, " %s%s  %s\n", name.Render(sub.Name()), padding, sub.Short)
			}
		}
	}

	var visibleFlags []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visibleFlags = append(visibleFlags, f)
		}
	})

	if len(visibleFlags) > 0 {
		if cmd.HasAvailableSubCommands() {
			flags := make([]string, 0, len(visibleFlags))
			for _, f := range visibleFlags {
				if f.Shorthand != "" {
					flags = append(flags, fmt.Sprintf("-%s/--%s", f.Shorthand, f.Name))
				} else {
					flags = append(flags, "--"+f.Name)
				}
			}
			fmt.Fprintln(w, "\n "+t.Muted.Render("Flags: "+strings.Join(flags, ", ")))
		} else {
			renderFlags(w, t, section, visibleFlags)
		}
	}

	exampleText := cmd.Example
	if exampleText == "" {
		exampleText = examples
	}
	if exampleText != "" {
		fmt.Fprintln(w, "\n "+section.Render("EXAMPLES"))
		renderExamples(w, t, exampleText, cmd.CommandPath())
	}

	helpExtrasMu.RLock()
	extras := helpExtras[cmd]
	helpExtrasMu.RUnlock()
	if extras != nil {
		extras(w, t)
	}

	if cmd.HasSubCommands() {
		fmt.Fprintf(w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func renderFlags(w io.Writer, t *theme.Theme, section lipgloss.Style, flags []*pflag.Flag) {
	violet := lipgloss.NewStyle().Foreground(t.Colors.Violet)
	fmt.Fprintln(w, "\n "+section.Render("FLAGS"))

	maxFlagLen := 0
	for _, f := range flags {
		if n := len(formatFlagName(f)); n > maxFlagLen {
			maxFlagLen = n
		}
	}
	indent := strings.Repeat(" ", maxFlagLen+3)

	for _, f := range flags {
		flagStr := formatFlagName(f)
		padding := strings.Repeat(" ", maxFlagLen-len(flagStr))

		usage, choices := parseChoices(f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" && f.DefValue != "0s" {
			usage += t.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		fmt.Fprintf(w, " %s%s  %s\n", violet.Render(flagStr), padding, usage)
		for _, choice := range choices {
			fmt.Fprintf(w, " %s  %s\n", indent, t.Muted.Render("• "+choice))
		}
	}
}

// formatFlagName returns "-f, --flag" or "    --flag".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}

// parseChoices splits a usage string of the form "Output format: a, b, c"
// into its description and choices. Fewer than three choices are left inline.
func parseChoices(usage string) (description string, choices []string) {
	colonIdx := strings.Index(usage, ": ")
	if colonIdx == -1 {
		return usage, nil
	}

	afterColon := usage[colonIdx+2:]
	choicesStr, suffix := afterColon, ""
	if endIdx := strings.Index(afterColon, " ("); endIdx != -1 {
		choicesStr, suffix = afterColon[:endIdx], afterColon[endIdx:]
	}

	parts := strings.Split(choicesStr, ", ")
	if len(parts) < 3 {
		return usage, nil
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(strings.TrimPrefix(p, "or "))
	}
	return usage[:colonIdx+1] + suffix, parts
}
