package headers

import (
	"net/http"

	"github.com/agnosto/boosty-archiver/config"
)

// BoostyHeaders carries everything needed to authorize API and CDN requests.
type BoostyHeaders struct {
	AuthToken string
	UserAgent string
}

func NewBoostyHeaders(cfg *config.Config) *BoostyHeaders {
	return &BoostyHeaders{
		AuthToken: cfg.Account.AuthToken,
		UserAgent: cfg.Account.UserAgent,
	}
}

func (b *BoostyHeaders) GetBasicHeaders() map[string]string {
	headers := map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
		"Origin":          "https://boosty.to",
		"Referer":         "https://boosty.to/",
	}
	if b.AuthToken != "" {
		headers["Authorization"] = "Bearer " + b.AuthToken
	}
	if b.UserAgent != "" {
		headers["User-Agent"] = b.UserAgent
	}
	return headers
}

func (b *BoostyHeaders) AddHeadersToRequest(req *http.Request) {
	for key, value := range b.GetBasicHeaders() {
		req.Header.Set(key, value)
	}
}
