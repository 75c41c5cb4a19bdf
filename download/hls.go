package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/grafov/m3u8"
	"golang.org/x/sync/semaphore"

	"github.com/agnosto/boosty-archiver/logger"
	"github.com/agnosto/boosty-archiver/posts"
	"github.com/agnosto/boosty-archiver/utils"
)

const (
	hlsSegmentWorkers = 4
	hlsSegmentWindow  = 16
	hlsMaxDepth       = 3
)

// handleVideoHLS archives a video that offers no static rendition, only an
// HLS playlist. Segments land concatenated in a single .ts file.
func (d *Downloader) handleVideoHLS(ctx context.Context, ref assetRef, index int, item *posts.VideoItem, playlistURL string) {
	key := ArchiveKey(ref.user, ref.seq, index)
	path := ref.path(index, item.ID) + ".hls.ts"

	if !d.force && !d.durable && d.skipExistingFile(path, -1, playlistURL, "video") {
		return
	}

	d.reporter.Printf("Downloading video via HLS playlist: %s", playlistURL)
	if err := d.downloadHLS(ctx, playlistURL, path); err != nil {
		d.reporter.Printf("Downloading HLS video error: %v", err)
		logger.Logger.Printf("Downloading HLS video %s: %v", playlistURL, err)
		return
	}

	d.recordArchived(key)
}

func (d *Downloader) downloadHLS(ctx context.Context, playlistURL, path string) error {
	media, mediaURL, err := d.resolveMediaPlaylist(ctx, playlistURL, 0)
	if err != nil {
		return err
	}

	var uris []string
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		uris = append(uris, utils.JoinURL(mediaURL, seg.URI))
	}
	if len(uris) == 0 {
		return fmt.Errorf("playlist %s has no segments", mediaURL)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	// Segments are fetched a window at a time with bounded concurrency,
	// then written in declaration order so the output stays playable.
	sem := semaphore.NewWeighted(hlsSegmentWorkers)
	for start := 0; start < len(uris); start += hlsSegmentWindow {
		end := min(start+hlsSegmentWindow, len(uris))
		window := uris[start:end]
		buffers := make([][]byte, len(window))

		var wg sync.WaitGroup
		var mu sync.Mutex
		var fetchErr error

		for i, uri := range window {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			wg.Add(1)
			go func(i int, uri string) {
				defer wg.Done()
				defer sem.Release(1)
				data, err := d.fetchSegment(ctx, uri)
				if err != nil {
					mu.Lock()
					if fetchErr == nil {
						fetchErr = err
					}
					mu.Unlock()
					return
				}
				buffers[i] = data
			}(i, uri)
		}
		wg.Wait()

		if fetchErr != nil {
			return fetchErr
		}
		for _, data := range buffers {
			if _, err := out.Write(data); err != nil {
				return err
			}
		}
	}

	return nil
}

// resolveMediaPlaylist fetches playlistURL and, for master playlists,
// follows the highest-bandwidth variant down to a media playlist.
func (d *Downloader) resolveMediaPlaylist(ctx context.Context, playlistURL string, depth int) (*m3u8.MediaPlaylist, string, error) {
	if depth >= hlsMaxDepth {
		return nil, "", fmt.Errorf("playlist nesting too deep at %s", playlistURL)
	}

	resp, err := d.fetchAsset(ctx, func(int) string { return playlistURL })
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, "", fmt.Errorf("decoding playlist %s: %w", playlistURL, err)
	}

	switch listType {
	case m3u8.MEDIA:
		return playlist.(*m3u8.MediaPlaylist), playlistURL, nil
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		var best *m3u8.Variant
		for _, v := range master.Variants {
			if v == nil {
				continue
			}
			if best == nil || v.Bandwidth > best.Bandwidth {
				best = v
			}
		}
		if best == nil {
			return nil, "", fmt.Errorf("master playlist %s has no variants", playlistURL)
		}
		return d.resolveMediaPlaylist(ctx, utils.JoinURL(playlistURL, best.URI), depth+1)
	default:
		return nil, "", fmt.Errorf("unknown playlist type at %s", playlistURL)
	}
}

func (d *Downloader) fetchSegment(ctx context.Context, uri string) ([]byte, error) {
	resp, err := d.fetchAsset(ctx, func(int) string { return uri })
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
