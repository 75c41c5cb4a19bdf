package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTextContent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain", `["Text","unstyled",[]]`, "Text"},
		{"styled ranges ignored", `["Bold text","unstyled",[[0,0,6]]]`, "Bold text"},
		{"empty payload", "", ""},
		{"not json", `{broken`, ""},
		{"empty array", `[]`, ""},
		{"non-string body", `[42,"unstyled",[]]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTextContent(tt.raw))
		})
	}
}

func TestExtractPostText(t *testing.T) {
	items := []ContentItem{
		&TextItem{Content: `["Hello","unstyled",[]]`, Modificator: ""},
		&TextItem{Content: "", Modificator: ModifierBlockEnd},
		&LinkItem{Content: `["","unstyled",[]]`, URL: "https://x"},
	}
	assert.Equal(t, "Hello\n", ExtractPostText(items))
}

func TestExtractPostTextVisibleLink(t *testing.T) {
	items := []ContentItem{
		&TextItem{Content: `["See ","unstyled",[]]`},
		&LinkItem{Content: `["here","unstyled",[]]`, URL: "https://example.com/page"},
		&TextItem{Content: "", Modificator: ModifierBlockEnd},
		&TextItem{Content: `["Bye","unstyled",[]]`},
	}
	assert.Equal(t, "See https://example.com/page\nBye", ExtractPostText(items))
}

func TestExtractPostTextMalformedItem(t *testing.T) {
	items := []ContentItem{
		&TextItem{Content: `not json at all`},
		&TextItem{Content: `["ok","unstyled",[]]`},
	}
	assert.Equal(t, "ok", ExtractPostText(items))
}
