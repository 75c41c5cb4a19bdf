package auth

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agnosto/boosty-archiver/config"
)

// LoadToken resolves the bearer token: explicit override first, then the
// config value, then a token.txt next to the binary. A missing token is a
// precondition failure reported before any network call.
func LoadToken(cfg *config.Config, override string) (string, error) {
	if override != "" {
		return strings.TrimSpace(override), nil
	}
	if cfg.Account.AuthToken != "" {
		return cfg.Account.AuthToken, nil
	}

	data, err := os.ReadFile("token.txt")
	if err != nil {
		return "", fmt.Errorf(`no auth token configured and "token.txt" is not readable: %w`, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf(`"token.txt" is empty`)
	}
	return token, nil
}

// LoadCookieJar parses a Netscape-format cookies.txt into a cookie jar
// scoped to boosty.to.
func LoadCookieJar(path string) (http.CookieJar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cookies file %q is not readable, export cookies for the boosty.to domain: %w", path, err)
	}
	defer file.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	siteURL, _ := url.Parse("https://boosty.to/")
	apiURL, _ := url.Parse("https://api.boosty.to/")

	var cookies []*http.Cookie
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// #HttpOnly_ lines are real cookies, other # lines are comments
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}

		cookie := &http.Cookie{
			Domain: strings.TrimPrefix(fields[0], "."),
			Path:   fields[2],
			Secure: fields[3] == "TRUE",
			Name:   fields[5],
			Value:  fields[6],
		}
		if expires, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expires > 0 {
			cookie.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cookies file: %w", err)
	}

	jar.SetCookies(siteURL, cookies)
	jar.SetCookies(apiURL, cookies)
	return jar, nil
}
