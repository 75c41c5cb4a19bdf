package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/agnosto/boosty-archiver/config"
	"github.com/agnosto/boosty-archiver/db"
	"github.com/agnosto/boosty-archiver/db/repository"
	"github.com/agnosto/boosty-archiver/db/service"
	"github.com/agnosto/boosty-archiver/headers"
	"github.com/agnosto/boosty-archiver/logger"
	"github.com/agnosto/boosty-archiver/posts"
	"github.com/agnosto/boosty-archiver/progress"
)

const (
	// assetRetryBackoff is the fixed wait between attempts after a
	// server-class response.
	assetRetryBackoff = 5 * time.Second
	// videoFailoverAfter is the attempt count at which video downloads
	// switch to the failover host, when one is known.
	videoFailoverAfter = 5
)

// Ledger is the dedup record of already-archived asset identities.
// service.ArchiveService implements it over sqlite.
type Ledger interface {
	Exists(key string) bool
	Record(key string) error
}

// MemoryLedger is the per-run fallback when no database is configured.
// Across runs, dedup then degrades to the downloader's filesystem checks.
type MemoryLedger struct {
	keys map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{keys: make(map[string]struct{})}
}

func (m *MemoryLedger) Exists(key string) bool {
	_, ok := m.keys[key]
	return ok
}

func (m *MemoryLedger) Record(key string) error {
	m.keys[key] = struct{}{}
	return nil
}

// ArchiveKey derives the stable ledger identity of one asset from the user,
// the post sequence number and the item's index within the post. It is
// built only from immutable identifiers, never from filenames, which can
// repeat across posts.
func ArchiveKey(user string, postSeq int64, index int) string {
	return fmt.Sprintf("boosty_%s_%d_%d", user, postSeq, index)
}

// Downloader drives the archive run for one or more creators: pagination,
// per-post dispatch and asset downloads, all on a single control flow.
type Downloader struct {
	client       *posts.Client
	httpClient   *http.Client
	headers      *headers.BoostyHeaders
	ledger       Ledger
	durable      bool
	database     *db.Database
	saveLocation string
	force        bool
	reporter     progress.Reporter
	retryBackoff time.Duration
}

func NewDownloader(cfg *config.Config, jar http.CookieJar, reporter progress.Reporter) (*Downloader, error) {
	hdrs := headers.NewBoostyHeaders(cfg)
	httpClient := &http.Client{
		Jar: jar,
		Transport: &http.Transport{
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}

	d := &Downloader{
		client:       posts.NewClient(httpClient, hdrs),
		httpClient:   httpClient,
		headers:      hdrs,
		ledger:       NewMemoryLedger(),
		saveLocation: cfg.Options.SaveLocation,
		force:        cfg.Options.ForceRedownload,
		reporter:     reporter,
		retryBackoff: assetRetryBackoff,
	}

	if cfg.Options.UseDatabase {
		database, err := db.NewDatabase(config.ResolveDatabasePath(cfg))
		if err != nil {
			logger.Logger.Printf("Error initializing database: %v", err)
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		d.database = database
		d.ledger = service.NewArchiveService(repository.NewArchiveRepository(database.DB))
		d.durable = true
	}

	return d, nil
}

func (d *Downloader) Close() error {
	if d.database != nil {
		return d.database.Close()
	}
	return nil
}

// assetRef identifies the post an asset belongs to. title is already
// sanitized for filesystem use.
type assetRef struct {
	user  string
	seq   int64
	title string
	dir   string
}

func (r assetRef) path(index int, name string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%d_%s_%d_%s", r.seq, r.title, index, name))
}

// fetchAsset issues a streaming GET for one asset URL, waiting out
// server-class errors with a fixed backoff. The URL is recomputed per
// attempt so video downloads can escalate to a failover host. Any
// non-success, non-server status aborts this asset only; a cancelled
// context aborts immediately, including mid-backoff.
func (d *Downloader) fetchAsset(ctx context.Context, urlFor func(attempt int) string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		url := urlFor(attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		d.headers.AddHeadersToRequest(req)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("requesting %s: %w", url, err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			d.reporter.Printf("Got server error %d, retrying after %v...", resp.StatusCode, d.retryBackoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.retryBackoff):
			}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("downloading %s failed with status %d", url, resp.StatusCode)
		}
		return resp, nil
	}
}

// skipArchived reports whether an asset was already fully downloaded. The
// ledger decides first; without a durable ledger a complete file on disk
// does. wantSize < 0 accepts any non-empty file (final video size is not
// known upfront).
func (d *Downloader) skipArchived(key, path string, wantSize int64, url, kind string) bool {
	if d.force {
		return false
	}
	if d.ledger.Exists(key) {
		d.reporter.Printf("Skipping archived %s: %s (ledger)", kind, url)
		return true
	}
	if d.durable {
		return false
	}
	return d.skipExistingFile(path, wantSize, url, kind)
}

// skipExistingFile is the across-run fallback without a durable ledger: a
// file at the target path with the expected byte length counts as done.
func (d *Downloader) skipExistingFile(path string, wantSize int64, url, kind string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if (wantSize < 0 && info.Size() > 0) || info.Size() == wantSize {
		d.reporter.Printf("Skipping archived %s: %s", kind, url)
		return true
	}
	return false
}

// recordArchived marks the key in the ledger after a fully written
// download. Ledger errors here only weaken future dedup, they never fail
// the run.
func (d *Downloader) recordArchived(key string) {
	if err := d.ledger.Record(key); err != nil {
		logger.Logger.Printf("Error recording ledger entry %s: %v", key, err)
	}
}

// writeBody streams the response body into path, truncating any partial
// prior write. firstChunk holds bytes already consumed for sniffing.
func (d *Downloader) writeBody(body io.Reader, total int64, path string, firstChunk []byte) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetDescription(fmt.Sprintf("[green]Downloading[reset] %s (%s)",
			filepath.Base(path),
			humanize.Bytes(uint64(max(total, 0))))),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Close()

	if len(firstChunk) > 0 {
		if _, err := out.Write(firstChunk); err != nil {
			return err
		}
		bar.Add(len(firstChunk))
	}

	_, err = io.Copy(io.MultiWriter(out, bar), body)
	return err
}
