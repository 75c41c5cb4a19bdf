package download

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/agnosto/boosty-archiver/config"
	"github.com/agnosto/boosty-archiver/logger"
	"github.com/agnosto/boosty-archiver/posts"
	"github.com/agnosto/boosty-archiver/utils"
)

// signedAssetURL authorizes a file or audio CDN URL with the blog's signed
// query and the migration flag.
func signedAssetURL(url, signedQuery string, isMigrated bool) string {
	return url + signedQuery + "&is_migrated=" + strconv.FormatBool(isMigrated)
}

// handleFile downloads one file attachment. The extension comes with the
// upstream filename, no sniffing needed.
func (d *Downloader) handleFile(ctx context.Context, ref assetRef, index int, item *posts.FileItem, signedQuery string) {
	finalURL := signedAssetURL(item.URL, signedQuery, item.IsMigrated)
	path := ref.path(index, config.SanitizeFilename(item.Title))
	key := ArchiveKey(ref.user, ref.seq, index)

	if item.Size == nil {
		d.reporter.Printf("Skipping file deleted from CDN: %s", finalURL)
		return
	}

	if d.skipArchived(key, path, *item.Size, item.URL, "file") {
		return
	}

	resp, err := d.fetchAsset(ctx, func(int) string { return finalURL })
	if err != nil {
		d.reporter.Printf("Downloading file error: %v", err)
		logger.Logger.Printf("Downloading file %s: %v", finalURL, err)
		return
	}
	defer resp.Body.Close()

	d.reporter.Printf("Downloading file (%s): %s", humanize.Bytes(uint64(*item.Size)), finalURL)
	if err := d.writeBody(resp.Body, resp.ContentLength, path, nil); err != nil {
		d.reporter.Printf("Streaming file error: %v", err)
		logger.Logger.Printf("Streaming file %s: %v", finalURL, err)
		return
	}

	d.recordArchived(key)
}

// handleImage downloads one image. The extension is unknown upfront and is
// sniffed from the first chunk of the body.
func (d *Downloader) handleImage(ctx context.Context, ref assetRef, index int, item *posts.ImageItem) {
	key := ArchiveKey(ref.user, ref.seq, index)

	if item.Width == nil || item.Height == nil || item.Size == nil {
		d.reporter.Printf("Skipping image deleted from CDN: %s", item.URL)
		return
	}

	if !d.force && d.ledger.Exists(key) {
		d.reporter.Printf("Skipping archived image: %s (ledger)", item.URL)
		return
	}

	resp, err := d.fetchAsset(ctx, func(int) string { return item.URL })
	if err != nil {
		d.reporter.Printf("Downloading image error: %v", err)
		logger.Logger.Printf("Downloading image %s: %v", item.URL, err)
		return
	}
	defer resp.Body.Close()

	chunk, ext, err := sniffBody(resp.Body, "png")
	if err != nil {
		d.reporter.Printf("Streaming image error: %v", err)
		logger.Logger.Printf("Streaming image %s: %v", item.URL, err)
		return
	}

	path := ref.path(index, item.ID) + "." + ext
	if !d.force && !d.durable && d.skipExistingFile(path, *item.Size, item.URL, "image") {
		return
	}

	d.reporter.Printf("Downloading image (%s): %s", humanize.Bytes(uint64(*item.Size)), item.URL)
	if err := d.writeBody(resp.Body, resp.ContentLength, path, chunk); err != nil {
		d.reporter.Printf("Streaming image error: %v", err)
		logger.Logger.Printf("Streaming image %s: %v", item.URL, err)
		return
	}

	d.recordArchived(key)
}

// handleVideo downloads the best available static rendition of one video,
// falling back to the HLS playlist when no static rendition is offered.
// Attempts are counted so repeated server errors escalate to the failover
// host.
func (d *Downloader) handleVideo(ctx context.Context, ref assetRef, index int, item *posts.VideoItem) {
	key := ArchiveKey(ref.user, ref.seq, index)

	if item.Width == nil || item.Height == nil {
		d.reporter.Printf("Skipping video deleted from CDN: %s", item.ID)
		return
	}

	if !d.force && d.ledger.Exists(key) {
		d.reporter.Printf("Skipping archived video: %s (ledger)", item.ID)
		return
	}

	urls := item.StreamURLs()
	quality, streamURL, ok := BestVideoQuality(urls)
	if !ok {
		if playlistURL := urls["hls"]; playlistURL != "" {
			d.handleVideoHLS(ctx, ref, index, item, playlistURL)
			return
		}
		d.reporter.Printf("Not found supported video quality for %s", item.ID)
		return
	}

	urlFor := func(attempt int) string {
		if attempt >= videoFailoverAfter && item.FailoverHost != "" {
			d.reporter.Printf("Trying downloading video using failover host: %s", item.FailoverHost)
			return utils.ReplaceHost(streamURL, item.FailoverHost)
		}
		return streamURL
	}

	resp, err := d.fetchAsset(ctx, urlFor)
	if err != nil {
		d.reporter.Printf("Downloading video error: %v", err)
		logger.Logger.Printf("Downloading video %s: %v", streamURL, err)
		return
	}
	defer resp.Body.Close()

	chunk, ext, err := sniffBody(resp.Body, "mp4")
	if err != nil {
		d.reporter.Printf("Streaming video error: %v", err)
		logger.Logger.Printf("Streaming video %s: %v", streamURL, err)
		return
	}

	path := fmt.Sprintf("%s.%s.%s", ref.path(index, item.ID), quality, ext)
	// Final video size is unknown upfront, any non-empty prior download counts.
	if !d.force && !d.durable && d.skipExistingFile(path, -1, streamURL, "video") {
		return
	}

	d.reporter.Printf("Downloading video (%dx%d %ds): %s",
		*item.Width, *item.Height, durationOrZero(item.Duration), streamURL)
	if err := d.writeBody(resp.Body, resp.ContentLength, path, chunk); err != nil {
		d.reporter.Printf("Streaming video error: %v", err)
		logger.Logger.Printf("Streaming video %s: %v", streamURL, err)
		return
	}

	d.recordArchived(key)
}

// handleAudio downloads one audio track. The extension is part of the
// upstream title; when the title is empty the track id plus the reported
// file type stands in.
func (d *Downloader) handleAudio(ctx context.Context, ref assetRef, index int, item *posts.AudioItem, signedQuery string) {
	key := ArchiveKey(ref.user, ref.seq, index)

	if item.Size == nil {
		d.reporter.Printf("Skipping audio deleted from CDN: %s", item.URL)
		return
	}

	filename := config.SanitizeFilename(item.Title)
	if filename == "" {
		fileType := item.FileType
		if fileType == "" {
			fileType = "mp3"
		}
		filename = item.ID + "." + strings.ToLower(fileType)
	}

	finalURL := signedAssetURL(item.URL, signedQuery, item.IsMigrated)
	path := ref.path(index, filename)

	if d.skipArchived(key, path, *item.Size, item.URL, "audio") {
		return
	}

	resp, err := d.fetchAsset(ctx, func(int) string { return finalURL })
	if err != nil {
		d.reporter.Printf("Downloading audio error: %v", err)
		logger.Logger.Printf("Downloading audio %s: %v", finalURL, err)
		return
	}
	defer resp.Body.Close()

	d.reporter.Printf("Downloading audio (%s): %s", humanize.Bytes(uint64(*item.Size)), finalURL)
	if err := d.writeBody(resp.Body, resp.ContentLength, path, nil); err != nil {
		d.reporter.Printf("Streaming audio error: %v", err)
		logger.Logger.Printf("Streaming audio %s: %v", finalURL, err)
		return
	}

	d.recordArchived(key)
}

func durationOrZero(d *int) int {
	if d == nil {
		return 0
	}
	return *d
}
