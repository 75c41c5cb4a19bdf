package download

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agnosto/boosty-archiver/headers"
	"github.com/agnosto/boosty-archiver/links"
	"github.com/agnosto/boosty-archiver/posts"
	"github.com/agnosto/boosty-archiver/progress"
)

func newTestDownloader(apiBase, saveDir string) *Downloader {
	hdrs := &headers.BoostyHeaders{UserAgent: "test-agent"}
	client := posts.NewClient(nil, hdrs)
	client.BaseURL = apiBase
	client.RetryBackoff = time.Millisecond

	return &Downloader{
		client:       client,
		httpClient:   &http.Client{},
		headers:      hdrs,
		ledger:       NewMemoryLedger(),
		saveLocation: saveDir,
		reporter:     progress.Nop{},
		retryBackoff: time.Millisecond,
	}
}

func TestArchiveUserEndToEnd(t *testing.T) {
	fileBody := []byte("attachment payload")
	imageBody := append(append([]byte{}, pngHeader...), []byte("image payload")...)

	var fileHits, imageHits atomic.Int64

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/blog/creator", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"isSubscribed":true,"subscriptionKind":"paid","signedQuery":"?sig=run1"}`)
	})
	mux.HandleFunc("/blog/creator/post/", func(w http.ResponseWriter, r *http.Request) {
		page := map[string]any{
			"data": []map[string]any{
				{
					"id":        "aaaa-bbbb",
					"int_id":    11,
					"title":     "Hello: World",
					"hasAccess": true,
					"data": []map[string]any{
						{"type": "text", "content": `["Hello there","unstyled",[]]`, "modificator": ""},
						{"type": "text", "content": "", "modificator": "BLOCK_END"},
						{"type": "link", "content": `["my site","unstyled",[]]`, "url": "https://example.com/x"},
						{"type": "file", "id": "f1", "title": "notes.txt", "url": srv.URL + "/cdn/file", "size": len(fileBody), "isMigrated": false, "complete": true},
						{"type": "image", "id": "img1", "url": srv.URL + "/cdn/image", "width": 10, "height": 10, "size": len(imageBody)},
					},
				},
				{
					"id":        "cccc-dddd",
					"int_id":    12,
					"title":     "Paywalled",
					"hasAccess": false,
					"data":      []map[string]any{},
				},
			},
			"extra": map[string]any{"offset": "", "isLast": true},
		}
		_ = json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/cdn/file", func(w http.ResponseWriter, r *http.Request) {
		fileHits.Add(1)
		assert.Equal(t, "run1", r.URL.Query().Get("sig"))
		assert.Equal(t, "false", r.URL.Query().Get("is_migrated"))
		w.Write(fileBody)
	})
	mux.HandleFunc("/cdn/image", func(w http.ResponseWriter, r *http.Request) {
		imageHits.Add(1)
		w.Write(imageBody)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	saveDir := t.TempDir()
	d := newTestDownloader(srv.URL, saveDir)

	require.NoError(t, d.ArchiveUser(context.Background(), "https://boosty.to/creator"))

	userDir := filepath.Join(saveDir, "creator")

	got, err := os.ReadFile(filepath.Join(userDir, "11_Hello： World_0_notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, fileBody, got)

	got, err = os.ReadFile(filepath.Join(userDir, "11_Hello： World_1_img1.png"))
	require.NoError(t, err)
	assert.Equal(t, imageBody, got)

	text, err := os.ReadFile(filepath.Join(userDir, "11_Hello： World.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "Hello there")
	assert.Contains(t, string(text), "https://example.com/x")

	report, err := os.ReadFile(filepath.Join(userDir, links.ReportFilename))
	require.NoError(t, err)
	assert.Equal(t, "11\thttps://boosty.to/creator/posts/aaaa-bbbb\thttps://example.com/x\n", string(report))

	// No file should exist for the inaccessible post.
	entries, err := os.ReadDir(userDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "Paywalled")
	}

	// A second run over the same listing must not touch the CDN again.
	require.NoError(t, d.ArchiveUser(context.Background(), "creator"))
	assert.Equal(t, int64(1), fileHits.Load())
	assert.Equal(t, int64(1), imageHits.Load())
}

func TestArchiveUserAbortsOnCancelDuringAssets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var secondHits atomic.Int64
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/blog/creator", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"isSubscribed":true,"subscriptionKind":"paid","signedQuery":"?sig=run1"}`)
	})
	mux.HandleFunc("/blog/creator/post/", func(w http.ResponseWriter, r *http.Request) {
		page := map[string]any{
			"data": []map[string]any{
				{
					"id":        "aaaa-bbbb",
					"int_id":    31,
					"title":     "Two files",
					"hasAccess": true,
					"data": []map[string]any{
						{"type": "file", "id": "f1", "title": "first.bin", "url": srv.URL + "/cdn/first", "size": 4, "isMigrated": false, "complete": true},
						{"type": "file", "id": "f2", "title": "second.bin", "url": srv.URL + "/cdn/second", "size": 4, "isMigrated": false, "complete": true},
					},
				},
			},
			"extra": map[string]any{"offset": "", "isLast": true},
		}
		_ = json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/cdn/first", func(w http.ResponseWriter, r *http.Request) {
		// The interrupt arrives while the first asset is in flight.
		cancel()
		w.Write([]byte("one!"))
	})
	mux.HandleFunc("/cdn/second", func(w http.ResponseWriter, r *http.Request) {
		secondHits.Add(1)
		w.Write([]byte("two!"))
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	saveDir := t.TempDir()
	d := newTestDownloader(srv.URL, saveDir)

	err := d.ArchiveUser(ctx, "creator")
	require.ErrorIs(t, err, context.Canceled)

	assert.Zero(t, secondHits.Load(), "no asset may start after cancellation")
	_, statErr := os.Stat(filepath.Join(saveDir, "creator", "31_Two files_1_second.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchAssetCancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newTestDownloader(srv.URL, t.TempDir())
	d.retryBackoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := d.fetchAsset(ctx, func(int) string { return srv.URL })
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second, "backoff must not outlive the context")
}

func TestFetchAssetRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	d := newTestDownloader(srv.URL, t.TempDir())

	resp, err := d.fetchAsset(context.Background(), func(int) string { return srv.URL })
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int64(3), hits.Load())
}

func TestFetchAssetAbortsOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := newTestDownloader(srv.URL, t.TempDir())

	_, err := d.fetchAsset(context.Background(), func(int) string { return srv.URL })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestHandleVideoEscalatesToFailoverHost(t *testing.T) {
	videoBody := []byte("not really an mp4 but non empty")

	var primaryHits, failoverHits atomic.Int64
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	failover := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failoverHits.Add(1)
		w.Write(videoBody)
	}))
	defer failover.Close()

	failoverURL, err := url.Parse(failover.URL)
	require.NoError(t, err)

	saveDir := t.TempDir()
	d := newTestDownloader(primary.URL, saveDir)

	width, height := 1280, 720
	item := &posts.VideoItem{
		ID:           "vid1",
		Width:        &width,
		Height:       &height,
		FailoverHost: failoverURL.Host,
		PlayerURLs: []posts.PlayerURL{
			{Type: "full_hd", URL: primary.URL + "/video/stream"},
		},
	}

	ref := assetRef{user: "creator", seq: 21, title: "clip", dir: saveDir}
	d.handleVideo(context.Background(), ref, 0, item)

	assert.Equal(t, int64(videoFailoverAfter), primaryHits.Load())
	assert.Equal(t, int64(1), failoverHits.Load())

	got, err := os.ReadFile(filepath.Join(saveDir, "21_clip_0_vid1.full_hd.mp4"))
	require.NoError(t, err)
	assert.Equal(t, videoBody, got)
	assert.True(t, d.ledger.Exists(ArchiveKey("creator", 21, 0)))
}

func TestDownloadHLSConcatenatesSegmentsInOrder(t *testing.T) {
	segments := [][]byte{
		[]byte("segment-zero-"),
		[]byte("segment-one-"),
		[]byte("segment-two"),
	}

	var lowHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/v/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Join([]string{
			"#EXTM3U",
			"#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=1000,RESOLUTION=640x360",
			"low.m3u8",
			"#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=2000,RESOLUTION=1280x720",
			"high.m3u8",
			"",
		}, "\n"))
	})
	mux.HandleFunc("/v/low.m3u8", func(w http.ResponseWriter, r *http.Request) {
		lowHits.Add(1)
	})
	mux.HandleFunc("/v/high.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Join([]string{
			"#EXTM3U",
			"#EXT-X-VERSION:3",
			"#EXT-X-TARGETDURATION:10",
			"#EXT-X-MEDIA-SEQUENCE:0",
			"#EXTINF:9.0,",
			"seg0.ts",
			"#EXTINF:9.0,",
			"seg1.ts",
			"#EXTINF:9.0,",
			"seg2.ts",
			"#EXT-X-ENDLIST",
			"",
		}, "\n"))
	})
	for i, body := range segments {
		body := body
		mux.HandleFunc(fmt.Sprintf("/v/seg%d.ts", i), func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		})
	}

	srv := httptest.NewServer(mux)
	defer srv.Close()

	saveDir := t.TempDir()
	d := newTestDownloader(srv.URL, saveDir)

	outPath := filepath.Join(saveDir, "stream.ts")
	require.NoError(t, d.downloadHLS(context.Background(), srv.URL+"/v/master.m3u8", outPath))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("segment-zero-segment-one-segment-two"), got)
	assert.Zero(t, lowHits.Load(), "only the highest bandwidth variant is fetched")
}
