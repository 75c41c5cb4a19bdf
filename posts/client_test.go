package posts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(&http.Client{}, nil)
	c.BaseURL = baseURL
	c.RetryBackoff = 10 * time.Millisecond
	return c
}

func TestGetPostsPagePaginationTermination(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		offset := r.URL.Query().Get("offset")
		switch fetches {
		case 1:
			assert.Equal(t, "", offset)
			fmt.Fprint(w, `{"data": [], "extra": {"offset": "cursor-1", "isLast": false}}`)
		case 2:
			assert.Equal(t, "cursor-1", offset)
			fmt.Fprint(w, `{"data": [], "extra": {"offset": "cursor-2", "isLast": false}}`)
		case 3:
			assert.Equal(t, "cursor-2", offset)
			fmt.Fprint(w, `{"data": [], "extra": {"offset": "cursor-3", "isLast": true}}`)
		default:
			t.Errorf("unexpected fetch %d", fetches)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	offset := ""
	pages := 0
	for {
		resp, err := client.GetPostsPage(context.Background(), "someone", offset)
		require.NoError(t, err)
		pages++
		if resp.Extra.IsLast {
			break
		}
		offset = resp.Extra.Offset
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, 3, fetches)
}

func TestGetPostsPageRetriesServerErrors(t *testing.T) {
	attempts := 0
	var gaps []time.Duration
	last := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		gaps = append(gaps, now.Sub(last))
		last = now
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data": [], "extra": {"offset": "", "isLast": true}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.RetryBackoff = 50 * time.Millisecond

	resp, err := client.GetPostsPage(context.Background(), "someone", "")
	require.NoError(t, err)
	assert.True(t, resp.Extra.IsLast)
	assert.Equal(t, 3, attempts)

	// Both retries must have waited out the backoff.
	require.Len(t, gaps, 3)
	assert.GreaterOrEqual(t, gaps[1], 50*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[2], 50*time.Millisecond)
}

func TestGetPostsPageCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.RetryBackoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.GetPostsPage(ctx, "someone", "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second, "backoff must not outlive the context")
}

func TestGetPostsPageAbortsOnClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetPostsPage(context.Background(), "someone", "")
	assert.ErrorContains(t, err, "status 401")
}

func TestGetBlogSignedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blog/someone", r.URL.Path)
		fmt.Fprint(w, `{"isSubscribed": true, "subscriptionKind": "paid", "signedQuery": "?sign=xyz"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	blog, err := client.GetBlog(context.Background(), "someone")
	require.NoError(t, err)
	assert.True(t, blog.IsSubscribed)
	assert.Equal(t, "?sign=xyz", blog.SignedQuery)
}
