package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/agnosto/boosty-archiver/headers"
	"github.com/agnosto/boosty-archiver/logger"
)

const (
	// DefaultAPIBase is the Boosty JSON API prefix.
	DefaultAPIBase = "https://api.boosty.to/v1"
	// PostsPerPage is the fixed page size for the listing endpoint.
	PostsPerPage = 100

	defaultRetryBackoff = 5 * time.Second
)

// Client fetches the blog and listing endpoints. Server-class errors are
// retried in place after a fixed backoff; the same request is reissued until
// it either succeeds or fails with a non-server status.
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	Headers      *headers.BoostyHeaders
	RetryBackoff time.Duration

	limiter *rate.Limiter
}

func NewClient(httpClient *http.Client, hdrs *headers.BoostyHeaders) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		BaseURL:      DefaultAPIBase,
		HTTPClient:   httpClient,
		Headers:      hdrs,
		RetryBackoff: defaultRetryBackoff,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// GetBlog resolves the creator's blog record, including the signed query
// token needed to authorize file and audio asset URLs.
func (c *Client) GetBlog(ctx context.Context, user string) (*Blog, error) {
	var blog Blog
	url := fmt.Sprintf("%s/blog/%s", c.BaseURL, user)
	if err := c.getJSON(ctx, url, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// GetPostsPage fetches one page of the creator's post listing. An empty
// offset requests the first page; otherwise the cursor returned by the
// previous page is passed through verbatim.
func (c *Client) GetPostsPage(ctx context.Context, user, offset string) (*PostsResponse, error) {
	url := fmt.Sprintf("%s/blog/%s/post/?limit=%d", c.BaseURL, user, PostsPerPage)
	if offset != "" {
		url += "&offset=" + offset
	}
	url += "&comments_limit=0&reply_limit=0&is_only_allowed=false"

	var resp PostsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.Headers != nil {
			c.Headers.AddHeadersToRequest(req)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("requesting %s: %w", url, err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			logger.Logger.Printf("Server error %d on %s, retrying after %v", resp.StatusCode, url, c.RetryBackoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.RetryBackoff):
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("request %s failed with status %d", url, resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decoding response from %s: %w", url, err)
		}
		return nil
	}
}
