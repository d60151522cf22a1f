package components

import (
	"regexp"
	"strings"
	"unicode"
)

// escapePattern matches CSI sequences and OSC sequences terminated by BEL,
// ST or nothing.
var escapePattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)?`)

// SanitizeText makes server supplied text safe to print: escape sequences,
// control characters and bidi overrides are removed. Newlines and tabs stay.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r), unicode.Is(unicode.Bidi_Control, r):
			return -1
		}
		return r
	}, escapePattern.ReplaceAllString(s, ""))
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// SanitizeOneLine is SanitizeText for single-line slots: line breaks and
// tabs become spaces.
func SanitizeOneLine(s string) string {
	return SanitizeText(lineBreaks.Replace(s))
}
