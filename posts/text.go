package posts

import (
	"encoding/json"
	"strings"

	"github.com/agnosto/boosty-archiver/logger"
)

// ParseTextContent decodes the nested rich-text payload, a stringified JSON
// array of the shape ["body", "unstyled", [[0, 0, 6], ...]], and returns the
// body. Malformed payloads yield an empty string and a diagnostic, never an
// error: one broken item must not sink the post.
func ParseTextContent(raw string) string {
	if raw == "" {
		return ""
	}

	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &parts); err != nil || len(parts) < 1 {
		logger.Logger.Printf("Error parsing post text payload: %q", raw)
		return ""
	}

	var body string
	if err := json.Unmarshal(parts[0], &body); err != nil {
		logger.Logger.Printf("Error parsing post text body: %q", raw)
		return ""
	}
	return body
}

// ExtractPostText renders the text and link items of a post, in declaration
// order, into a plain-text block. Block-end text items become newlines. A
// link whose own body decodes empty is a hidden decorative link and
// contributes nothing; a visible link contributes its literal URL.
func ExtractPostText(items []ContentItem) string {
	var sb strings.Builder
	for _, item := range items {
		switch it := item.(type) {
		case *TextItem:
			if it.Modificator == ModifierBlockEnd {
				sb.WriteString("\n")
				continue
			}
			sb.WriteString(ParseTextContent(it.Content))
		case *LinkItem:
			if ParseTextContent(it.Content) != "" {
				sb.WriteString(it.URL)
			}
		}
	}
	return sb.String()
}
