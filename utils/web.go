package utils

import (
	"fmt"
	"net/url"
	"regexp"
)

var userInputPattern = regexp.MustCompile(`(?i)^(?:https?://(?:www\.)?boosty\.to/)?([\w\-.]+)`)

// ParseUserInput extracts the creator's user name from either a boosty.to
// URL or a bare user name.
func ParseUserInput(input string) (string, error) {
	match := userInputPattern.FindStringSubmatch(input)
	if match == nil {
		return "", fmt.Errorf("unsupported input %q, expected a boosty.to URL or user name", input)
	}
	return match[1], nil
}

// ReplaceHost swaps the host of rawURL, keeping scheme, path and query.
// Used to retarget video downloads at a failover host.
func ReplaceHost(rawURL, host string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Host = host
	return u.String()
}

// JoinURL resolves a possibly relative reference against a base URL.
func JoinURL(baseURL, relativePath string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	relative, err := url.Parse(relativePath)
	if err != nil {
		return ""
	}

	return base.ResolveReference(relative).String()
}
