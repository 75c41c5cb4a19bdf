package config

import (
	"regexp"
	"strings"
)

// filenameReplacer swaps characters Windows refuses in filenames for
// visually similar unicode ones, so titles survive on every filesystem.
var filenameReplacer = strings.NewReplacer(
	"\\", "⧹",
	"/", "⧸",
	":", "：",
	"*", "✩",
	"?", "？",
	"\"", "＂",
	"<", "⧼",
	">", "⧽",
	"|", "｜",
)

var controlChars = regexp.MustCompile(`[\x00-\x1f]`)

// SanitizeFilename cleans a post or attachment title for use as a filename:
// surrounding whitespace and trailing bare dots are trimmed, control
// characters are stripped, forbidden characters are substituted.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ".")
	name = strings.TrimSpace(name)
	name = filenameReplacer.Replace(name)
	return controlChars.ReplaceAllString(name, "")
}
