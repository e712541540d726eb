package app_test

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/leadsmith/leadsmith/internal/app"
	"github.com/leadsmith/leadsmith/internal/crawl"
	"github.com/leadsmith/leadsmith/internal/expand"
	"github.com/leadsmith/leadsmith/internal/extract"
	"github.com/leadsmith/leadsmith/internal/leads"
	"github.com/leadsmith/leadsmith/internal/mockplaces"
	"github.com/leadsmith/leadsmith/internal/places"
	"github.com/leadsmith/leadsmith/internal/textgen"
)

func newSite(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscover_EndToEnd(t *testing.T) {
	t.Parallel()

	acme := newSite(t, `<p>Reach us at Sales@Acme.example or via sentry.io@o123456.ingest.sentry.io</p>`)
	noContact := newSite(t, `<p>No addresses here.</p>`)

	mock := mockplaces.New()
	mock.AddQuery("specialty coffee berlin",
		mockplaces.Page{PlaceIDs: []string{"p-acme", "p-silent"}},
	)
	mock.AddQuery("coffee roasters berlin",
		mockplaces.Page{PlaceIDs: []string{"p-nosite"}},
	)
	mock.AddPlace(mockplaces.Place{ID: "p-acme", Name: "Acme Coffee", Website: acme.URL})
	mock.AddPlace(mockplaces.Place{ID: "p-silent", Name: "Silent Cafe", Website: noContact.URL})
	mock.AddPlace(mockplaces.Place{ID: "p-nosite", Name: "No Site Cafe"})

	upstream := httptest.NewServer(mock.Handler())
	t.Cleanup(upstream.Close)

	gen := textgen.GenerateFunc(func(_ context.Context, _, _ string) (string, error) {
		return "1. specialty coffee berlin\n2. coffee roasters berlin", nil
	})

	d := &app.Discoverer{
		Expander: &expand.Expander{Gen: gen},
		Searcher: &places.Searcher{
			Client: places.NewClient(upstream.URL, "test-key", nil),
			Opts:   places.SearchOptions{PageDelay: time.Millisecond},
		},
		Extractor: &extract.Extractor{Rules: extract.DefaultRules()},
		CrawlOpts: crawl.Options{Workers: 4},
	}

	batch, err := d.Discover(context.Background(), "coffee shops in Berlin")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	recs := batch.Records()
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1: %#v", len(recs), recs)
	}
	if recs[0].CompanyName != "Acme Coffee" || recs[0].Website != acme.URL {
		t.Fatalf("unexpected record: %#v", recs[0])
	}
	if len(recs[0].Emails) != 1 || recs[0].Emails[0] != "sales@acme.example" {
		t.Fatalf("unexpected emails: %#v", recs[0].Emails)
	}
}

func TestDiscover_SiteFailureDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	good := newSite(t, `<a href="mailto:hello@good.example">mail</a>`)
	broken := newSite(t, "")
	brokenURL := broken.URL
	broken.Close()

	mock := mockplaces.New()
	mock.AddQuery("bakeries hamburg", mockplaces.Page{PlaceIDs: []string{"p-broken", "p-good"}})
	mock.AddPlace(mockplaces.Place{ID: "p-broken", Name: "Broken Bakery", Website: brokenURL})
	mock.AddPlace(mockplaces.Place{ID: "p-good", Name: "Good Bakery", Website: good.URL})

	upstream := httptest.NewServer(mock.Handler())
	t.Cleanup(upstream.Close)

	gen := textgen.GenerateFunc(func(_ context.Context, _, _ string) (string, error) {
		return "bakeries hamburg", nil
	})

	d := &app.Discoverer{
		Expander: &expand.Expander{Gen: gen},
		Searcher: &places.Searcher{
			Client: places.NewClient(upstream.URL, "test-key", nil),
			Opts:   places.SearchOptions{PageDelay: time.Millisecond},
		},
		Extractor: &extract.Extractor{Rules: extract.DefaultRules()},
		CrawlOpts: crawl.Options{Workers: 2, FetchTimeout: 2 * time.Second},
	}

	batch, err := d.Discover(context.Background(), "bakeries in Hamburg")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	recs := batch.Records()
	if len(recs) != 1 || recs[0].CompanyName != "Good Bakery" {
		t.Fatalf("unexpected records: %#v", recs)
	}
}

func TestDiscover_ExpansionFailureYieldsEmptyBatch(t *testing.T) {
	t.Parallel()

	mock := mockplaces.New()
	upstream := httptest.NewServer(mock.Handler())
	t.Cleanup(upstream.Close)

	gen := textgen.GenerateFunc(func(_ context.Context, _, _ string) (string, error) {
		return "", context.DeadlineExceeded
	})

	var logBuf bytes.Buffer
	d := &app.Discoverer{
		Expander: &expand.Expander{Gen: gen},
		Searcher: &places.Searcher{
			Client: places.NewClient(upstream.URL, "test-key", nil),
			Opts:   places.SearchOptions{PageDelay: time.Millisecond},
		},
		Extractor: &extract.Extractor{Rules: extract.DefaultRules()},
		Logger:    log.New(&logBuf, "", 0),
	}

	batch, err := d.Discover(context.Background(), "anything")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if batch.Len() != 0 {
		t.Fatalf("expected empty batch, got %d records", batch.Len())
	}
	if calls := mock.Calls(); len(calls) != 0 {
		t.Fatalf("no upstream calls expected, got %d", len(calls))
	}
	if !strings.Contains(logBuf.String(), "records=0") {
		t.Fatalf("expected completion log, got:\n%s", logBuf.String())
	}
}

func TestDiscoverToFile_WritesArtifact(t *testing.T) {
	t.Parallel()

	site := newSite(t, `contact: owner@shop.example`)

	mock := mockplaces.New()
	mock.AddQuery("flower shops", mockplaces.Page{PlaceIDs: []string{"p-1"}})
	mock.AddPlace(mockplaces.Place{ID: "p-1", Name: "Bloom", Website: site.URL})

	upstream := httptest.NewServer(mock.Handler())
	t.Cleanup(upstream.Close)

	gen := textgen.GenerateFunc(func(_ context.Context, _, _ string) (string, error) {
		return "flower shops", nil
	})

	d := &app.Discoverer{
		Expander: &expand.Expander{Gen: gen},
		Searcher: &places.Searcher{
			Client: places.NewClient(upstream.URL, "test-key", nil),
			Opts:   places.SearchOptions{PageDelay: time.Millisecond},
		},
		Extractor: &extract.Extractor{Rules: extract.DefaultRules()},
	}

	outPath := t.TempDir() + "/" + leads.ArtifactName
	batch, err := d.DiscoverToFile(context.Background(), "flower shops near me", outPath)
	if err != nil {
		t.Fatalf("discover to file: %v", err)
	}
	if batch.Len() != 1 {
		t.Fatalf("got %d records, want 1", batch.Len())
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()
	got, err := leads.ReadCSV(f)
	if err != nil {
		t.Fatalf("reimport artifact: %v", err)
	}
	if got.Len() != 1 || got.Records()[0].Emails[0] != "owner@shop.example" {
		t.Fatalf("unexpected reimported batch: %#v", got.Records())
	}
}
