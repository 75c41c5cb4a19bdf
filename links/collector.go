// Package links accumulates every external link found in a creator's posts
// and maintains the per-user _post_links.txt report across runs.
package links

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ReportFilename is the per-user link report, tab-separated rows of
// postSeq, postURL, linkURL.
const ReportFilename = "_post_links.txt"

// Record is one link found in a post. PostSeq is the post's sequence number
// in string form; the report is sorted lexicographically on it.
type Record struct {
	PostSeq string
	PostURL string
	LinkURL string
}

// Collector gathers link records for one archive run, de-duplicated on the
// full tuple.
type Collector struct {
	records []Record
	seen    map[Record]struct{}
}

func NewCollector() *Collector {
	return &Collector{seen: make(map[Record]struct{})}
}

func (c *Collector) Add(postSeq, postURL, linkURL string) {
	rec := Record{PostSeq: postSeq, PostURL: postURL, LinkURL: linkURL}
	if _, ok := c.seen[rec]; ok {
		return
	}
	c.seen[rec] = struct{}{}
	c.records = append(c.records, rec)
}

func (c *Collector) Empty() bool {
	return len(c.records) == 0
}

// MergeAndSave folds a previous run's report at path into the collected set,
// sorts the union ascending by PostSeq, and rewrites the file. A run that
// collected nothing performs no I/O at all.
func (c *Collector) MergeAndSave(path string) ([]Record, error) {
	if c.Empty() {
		return nil, nil
	}

	merged := append([]Record(nil), c.records...)
	for _, rec := range loadReport(path) {
		if _, ok := c.seen[rec]; !ok {
			c.seen[rec] = struct{}{}
			merged = append(merged, rec)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PostSeq < merged[j].PostSeq
	})

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("writing link report %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, rec := range merged {
		fmt.Fprintf(w, "%s\t%s\t%s\n", rec.PostSeq, rec.PostURL, rec.LinkURL)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("writing link report %s: %w", path, err)
	}

	return merged, nil
}

// loadReport reads a prior report, skipping blank and malformed rows.
func loadReport(path string) []Record {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}
		records = append(records, Record{PostSeq: fields[0], PostURL: fields[1], LinkURL: fields[2]})
	}
	return records
}
