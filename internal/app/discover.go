package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/leadsmith/leadsmith/internal/crawl"
	"github.com/leadsmith/leadsmith/internal/expand"
	"github.com/leadsmith/leadsmith/internal/extract"
	"github.com/leadsmith/leadsmith/internal/leads"
	"github.com/leadsmith/leadsmith/internal/places"
)

// Discoverer wires the lead-discovery stages together: query expansion,
// place search, site crawl, and email extraction.
type Discoverer struct {
	Expander  *expand.Expander
	Searcher  *places.Searcher
	Extractor *extract.Extractor
	CrawlOpts crawl.Options
	Logger    *log.Logger
}

// Discover runs the full pipeline for one free-form request and returns the
// aggregated batch. Candidates whose sites yield no surviving email are
// absent from the batch.
func (d *Discoverer) Discover(ctx context.Context, request string) (*leads.Batch, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	logf := func(format string, args ...any) {
		prefix := make([]any, 0, len(args)+1)
		prefix = append(prefix, runID)
		prefix = append(prefix, args...)
		logger.Printf("run=%s "+format, prefix...)
	}
	runStart := time.Now()
	logf("discovery start: request=%q crawlWorkers=%d", request, d.CrawlOpts.Workers)

	queries := d.Expander.Expand(ctx, request)
	logf("expanded into %d queries", countNonEmpty(queries))

	batch := &leads.Batch{}
	for i, query := range queries {
		if strings.TrimSpace(query) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		searchStart := time.Now()
		candidates := d.Searcher.Search(ctx, query)
		logf("query %d/%d %q: %d candidates in %s",
			i+1, len(queries), query, len(candidates), time.Since(searchStart).Round(time.Millisecond))
		if len(candidates) == 0 {
			continue
		}

		crawlStart := time.Now()
		results := crawl.FetchAll(ctx, candidates, d.CrawlOpts)

		found := 0
		for _, res := range results {
			if res.Err != nil {
				logf("site skipped: website=%q error=%q", res.Candidate.Website, res.Err.Error())
				continue
			}
			emails := d.Extractor.Emails(res.HTML)
			if len(emails) == 0 {
				continue
			}
			batch.Append(res.Candidate.Name, res.Candidate.Website, emails)
			found++
		}
		logf("query %d/%d crawl complete: sites=%d withEmails=%d duration=%s",
			i+1, len(queries), len(results), found, time.Since(crawlStart).Round(time.Millisecond))
	}

	logf("discovery complete: records=%d totalDuration=%s",
		batch.Len(), time.Since(runStart).Round(time.Millisecond))
	return batch, nil
}

// DiscoverToFile runs Discover and writes the batch as the CSV artifact.
func (d *Discoverer) DiscoverToFile(ctx context.Context, request, outputPath string) (*leads.Batch, error) {
	batch, err := d.Discover(ctx, request)
	if err != nil {
		return batch, err
	}

	outF, err := os.Create(outputPath)
	if err != nil {
		return batch, err
	}
	defer func() {
		_ = outF.Close()
	}()

	if err := leads.WriteCSV(outF, batch); err != nil {
		return batch, err
	}
	return batch, outF.Close()
}

func countNonEmpty(queries []string) int {
	n := 0
	for _, q := range queries {
		if strings.TrimSpace(q) != "" {
			n++
		}
	}
	return n
}
