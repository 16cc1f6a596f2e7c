// Package speech turns assistant replies into audio and dictated audio into text.
package speech

import (
	"regexp"
	"strings"
)

var (
	fencedCode   = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`[^`]+`")
	emphasis     = regexp.MustCompile(`[*_~]`)
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	htmlTag      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Sanitize strips markup that should not be read aloud
func Sanitize(text string) string {
	text = fencedCode.ReplaceAllString(text, " code fragment ")
	text = inlineCode.ReplaceAllString(text, " code ")
	text = emphasis.ReplaceAllString(text, "")
	text = markdownLink.ReplaceAllString(text, "$1")
	text = htmlTag.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
