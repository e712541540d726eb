package crawl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leadsmith/leadsmith/internal/crawl"
	"github.com/leadsmith/leadsmith/internal/places"
)

func TestFetchAll_IsolatesPerSiteFailure(t *testing.T) {
	t.Parallel()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>contact us: info@acme.test</html>"))
	}))
	t.Cleanup(ok.Close)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	// A server that is already gone produces a connection error.
	gone := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	goneURL := gone.URL
	gone.Close()

	candidates := []places.Candidate{
		{PlaceID: "p1", Name: "Acme", Website: ok.URL},
		{PlaceID: "p2", Name: "Broken", Website: broken.URL},
		{PlaceID: "p3", Name: "Gone", Website: goneURL},
	}

	results := crawl.FetchAll(context.Background(), candidates, crawl.Options{
		Workers:      3,
		FetchTimeout: 2 * time.Second,
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Err != nil || results[0].HTML == "" {
		t.Fatalf("healthy site should have HTML: %#v", results[0])
	}
	if results[1].Err == nil || results[1].HTML != "" {
		t.Fatalf("non-2xx site should fail with empty HTML: %#v", results[1])
	}
	if results[2].Err == nil || results[2].HTML != "" {
		t.Fatalf("unreachable site should fail with empty HTML: %#v", results[2])
	}

	for i, c := range candidates {
		if results[i].Candidate != c {
			t.Fatalf("result[%d] paired with %#v, want %#v", i, results[i].Candidate, c)
		}
	}
}

func TestFetchAll_EmptyBatch(t *testing.T) {
	t.Parallel()

	results := crawl.FetchAll(context.Background(), nil, crawl.Options{})
	if len(results) != 0 {
		t.Fatalf("expected no results, got %#v", results)
	}
}
