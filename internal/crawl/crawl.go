package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leadsmith/leadsmith/internal/places"
	"github.com/leadsmith/leadsmith/pkg/pipeline/worker"
)

// maxBodyBytes caps how much of a page is read; contact addresses live in
// page markup, not in multi-megabyte payloads.
const maxBodyBytes = 5 << 20

// Result is the outcome of fetching one candidate's website. A failed fetch
// carries Err and an empty HTML; it never affects sibling results.
type Result struct {
	Candidate places.Candidate
	HTML      string
	Err       error
}

type Options struct {
	// Workers bounds concurrent fetches per batch.
	Workers int
	// FetchTimeout applies per request.
	FetchTimeout time.Duration
	// RateLimitRPS limits fetches across the batch. <=0 disables.
	RateLimitRPS float64
}

// FetchAll fetches every candidate's website concurrently inside one shared
// connection scope. The scope is opened before fan-out and released after
// the join barrier, regardless of individual fetch outcomes.
func FetchAll(ctx context.Context, candidates []places.Candidate, opts Options) []Result {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	defer transport.CloseIdleConnections()

	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Transport: transport}

	fetch := func(ctx context.Context, c places.Candidate) (string, error) {
		return fetchPage(ctx, client, c.Website)
	}

	out, err := worker.FanOut(ctx, candidates, fetch, worker.Options{
		Workers:        opts.Workers,
		RequestTimeout: timeout,
		RateLimitRPS:   opts.RateLimitRPS,
		FailurePolicy:  worker.FailurePolicyPartialOutput,
	})
	if err != nil {
		// Only batch-level cancellation lands here; report it per candidate
		// so callers see one uniform result shape.
		results := make([]Result, len(candidates))
		for i, c := range candidates {
			results[i] = Result{Candidate: c, Err: err}
		}
		return results
	}

	results := make([]Result, len(out))
	for i, r := range out {
		results[i] = Result{Candidate: r.Input, HTML: r.Output, Err: r.Err}
	}
	return results
}

// fetchPage retrieves one page of HTML. No link-following.
func fetchPage(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
