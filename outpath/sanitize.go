package outpath

import (
	"regexp"
)

var (
	invalidChars       = regexp.MustCompile(`[/\\:|<>"?*` + "\x00-\x1f" + `]`)
	reservedDeviceName = regexp.MustCompile(`(?i)^(AUX|COM[1-9]|CON|LPT[1-9]|NUL|PRN)(\.|$)`)
	leadingWhitespace  = regexp.MustCompile(`^\s`)
	trailingJunk       = regexp.MustCompile(`[\s.]$`)
)

// Sanitize replaces path separators, control characters, characters invalid on
// Windows, whole reserved device names, a leading whitespace character, and a
// trailing whitespace-or-dot character with a single underscore each. A
// positive maxLen truncates the result without re-sanitizing, so truncation
// artifacts such as a trailing dot are accepted as-is.
func Sanitize(name string, maxLen int) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = reservedDeviceName.ReplaceAllString(name, "_$2")
	name = leadingWhitespace.ReplaceAllString(name, "_")
	name = trailingJunk.ReplaceAllString(name, "_")

	if runes := []rune(name); maxLen > 0 && len(runes) > maxLen {
		name = string(runes[:maxLen])
	}
	return name
}
