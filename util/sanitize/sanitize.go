package sanitize

import (
	"regexp"
	"strings"
)

var (
	// appleScriptReplacer escapes characters special inside an AppleScript string literal
	appleScriptReplacer = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
	)

	// controlCharsRegex matches control characters other than tab
	controlCharsRegex = regexp.MustCompile(`[\x00-\x08\x0a-\x1f\x7f]+`)

	// multiSpaceRegex matches runs of whitespace
	multiSpaceRegex = regexp.MustCompile(`\s{2,}`)
)

// ForAppleScript escapes s for embedding between double quotes in an AppleScript source.
func ForAppleScript(s string) string {
	return appleScriptReplacer.Replace(s)
}

// QuoteAppleScript returns s as a complete AppleScript string literal.
func QuoteAppleScript(s string) string {
	return `"` + ForAppleScript(s) + `"`
}

// ForNotification flattens s into a single line suitable for a desktop
// notification title or body.
func ForNotification(s string) string {
	if s == "" {
		return ""
	}

	// Control characters and newlines become spaces
	s = controlCharsRegex.ReplaceAllString(s, " ")

	// Collapse whitespace
	s = multiSpaceRegex.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
