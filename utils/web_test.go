package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserInput(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://boosty.to/someone", "someone"},
		{"https://www.boosty.to/someone/posts/abc", "someone"},
		{"http://boosty.to/some-one.two", "some-one.two"},
		{"someone", "someone"},
	}

	for _, tt := range tests {
		user, err := ParseUserInput(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, user)
	}
}

func TestParseUserInputRejectsGarbage(t *testing.T) {
	_, err := ParseUserInput("://nope")
	assert.Error(t, err)
}

func TestReplaceHost(t *testing.T) {
	out := ReplaceHost("https://vd123.okcdn.ru/video?expires=1&sig=x", "vd234.okcdn.ru")
	assert.Equal(t, "https://vd234.okcdn.ru/video?expires=1&sig=x", out)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/hls/seg1.ts",
		JoinURL("https://cdn.example.com/hls/index.m3u8", "seg1.ts"))
	assert.Equal(t, "https://cdn.example.com/abs/seg1.ts",
		JoinURL("https://cdn.example.com/hls/index.m3u8", "/abs/seg1.ts"))
	assert.Equal(t, "https://other.example.com/seg1.ts",
		JoinURL("https://cdn.example.com/hls/index.m3u8", "https://other.example.com/seg1.ts"))
}
