package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agnosto/boosty-archiver/config"
	"github.com/agnosto/boosty-archiver/links"
	"github.com/agnosto/boosty-archiver/logger"
	"github.com/agnosto/boosty-archiver/posts"
	"github.com/agnosto/boosty-archiver/utils"
)

const defaultSignedQuery = "?t"

// ArchiveUser archives every post of one creator: the full paginated
// listing is walked page by page, each page's posts are dispatched in
// order, and the run's collected links are merged into the per-user
// report at the end.
func (d *Downloader) ArchiveUser(ctx context.Context, input string) error {
	user, err := utils.ParseUserInput(input)
	if err != nil {
		return err
	}

	blog, err := d.client.GetBlog(ctx, user)
	if err != nil {
		return fmt.Errorf("resolving blog %s: %w", user, err)
	}

	signedQuery := blog.SignedQuery
	if signedQuery == "" {
		signedQuery = defaultSignedQuery
	}

	outputDir := filepath.Join(d.saveLocation, user)
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outputDir, err)
	}

	d.reporter.Printf("Starting archiving user: %s (subscribed=%v kind=%s)",
		user, blog.IsSubscribed, blog.SubscriptionKind)

	collector := links.NewCollector()

	offset := ""
	for page := 1; ; page++ {
		d.reporter.Describe(fmt.Sprintf("Page %d", page))

		resp, err := d.client.GetPostsPage(ctx, user, offset)
		if err != nil {
			return fmt.Errorf("fetching posts page %d for %s: %w", page, user, err)
		}

		d.reporter.AddTotal(len(resp.Data))

		for i := range resp.Data {
			if err := ctx.Err(); err != nil {
				return err
			}
			post := &resp.Data[i]
			if post.SignedQuery != "" {
				signedQuery = post.SignedQuery
			}
			d.processPost(ctx, user, outputDir, post, signedQuery, collector)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if resp.Extra.IsLast {
			break
		}
		// The cursor goes back verbatim, the walker never recomputes it.
		offset = resp.Extra.Offset
	}

	reportPath := filepath.Join(outputDir, links.ReportFilename)
	merged, err := collector.MergeAndSave(reportPath)
	if err != nil {
		logger.Logger.Printf("Error saving link report for %s: %v", user, err)
	} else if table := links.RenderReport(merged); table != "" {
		d.reporter.Printf("%s", table)
	}

	return nil
}

// processPost classifies one post's content items in declaration order.
// Text and links accumulate immediately; downloadable items consume a
// sequence index and are queued, then executed strictly after the text
// sidecar is written. A post without access contributes nothing and is
// taken back out of the expected total. A cancelled context stops the
// queue between assets; the in-flight request dies with it.
func (d *Downloader) processPost(ctx context.Context, user, outputDir string, post *posts.Post, signedQuery string, collector *links.Collector) {
	if !post.HasAccess {
		d.reporter.Printf("Skipping post %s (%d) - has no access", post.ID, post.IntID)
		d.reporter.AddTotal(-1)
		return
	}

	ref := assetRef{
		user:  user,
		seq:   post.IntID,
		title: config.SanitizeFilename(post.Title),
		dir:   outputDir,
	}

	var textItems []posts.ContentItem
	var tasks []func()
	index := 0

	for _, item := range post.Data {
		switch it := item.(type) {
		case *posts.TextItem:
			textItems = append(textItems, it)
		case *posts.LinkItem:
			textItems = append(textItems, it)
			collector.Add(strconv.FormatInt(post.IntID, 10), posts.PostURL(user, post.ID), it.URL)
		case *posts.FileItem:
			i, v := index, it
			tasks = append(tasks, func() { d.handleFile(ctx, ref, i, v, signedQuery) })
			index++
		case *posts.ImageItem:
			i, v := index, it
			tasks = append(tasks, func() { d.handleImage(ctx, ref, i, v) })
			index++
		case *posts.VideoItem:
			i, v := index, it
			tasks = append(tasks, func() { d.handleVideo(ctx, ref, i, v) })
			index++
		case *posts.AudioItem:
			i, v := index, it
			tasks = append(tasks, func() { d.handleAudio(ctx, ref, i, v, signedQuery) })
			index++
		default:
			d.reporter.Printf("Unsupported content item type: %q", item.ItemType())
			logger.Logger.Printf("Unsupported content item type %q in post %s", item.ItemType(), post.ID)
		}
	}

	if text := strings.TrimSpace(posts.ExtractPostText(textItems)); text != "" {
		path := filepath.Join(outputDir, fmt.Sprintf("%d_%s.txt", post.IntID, ref.title))
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			d.reporter.Printf("Writing post text error: %v", err)
			logger.Logger.Printf("Writing post text %s: %v", path, err)
		}
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		task()
	}

	d.reporter.Advance(1)
}
