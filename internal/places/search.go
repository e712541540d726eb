package places

import (
	"context"
	"log"
	"time"

	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"
)

// DefaultPageDelay is the wait the upstream mandates before a continuation
// token becomes valid. Reusing a token earlier gets the request rejected.
const DefaultPageDelay = 5 * time.Second

type SearchOptions struct {
	// PageDelay overrides DefaultPageDelay (tests use a short one).
	PageDelay time.Duration

	// MaxPages bounds the pagination loop; 0 means follow tokens until the
	// upstream stops returning them.
	MaxPages int
}

// Searcher executes paginated place searches and resolves candidate details.
type Searcher struct {
	Client *Client
	Opts   SearchOptions
	Logger *log.Logger
}

// Search runs one query across all result pages and returns candidates that
// resolved to a website, in discovery order. Upstream failures degrade to
// whatever was accumulated so far; Search never returns an error.
func (s *Searcher) Search(ctx context.Context, query string) []Candidate {
	delay := s.Opts.PageDelay
	if delay <= 0 {
		delay = DefaultPageDelay
	}

	var ids []string
	pages := 0

	page, err := s.Client.TextSearch(ctx, query, "")
	if err != nil {
		s.logf("text search %q failed: %s", query, redact.Secrets(err.Error()))
		return nil
	}

	for {
		pages++
		if page.Status != StatusOK {
			if page.Status != "ZERO_RESULTS" {
				s.logf("text search %q: status %q, treating as no results", query, page.Status)
			}
			break
		}
		for _, r := range page.Results {
			ids = append(ids, r.PlaceID)
		}

		if page.NextPageToken == "" {
			break
		}
		if s.Opts.MaxPages > 0 && pages >= s.Opts.MaxPages {
			s.logf("text search %q: page cap %d reached, stopping pagination", query, s.Opts.MaxPages)
			break
		}

		// The token is not valid until the mandated delay has elapsed.
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			s.logf("text search %q: cancelled during page delay", query)
			return s.resolve(ctx, ids)
		}

		next, err := s.Client.TextSearch(ctx, query, page.NextPageToken)
		if err != nil {
			s.logf("text search %q page %d failed: %s", query, pages+1, redact.Secrets(err.Error()))
			break
		}
		page = next
	}

	return s.resolve(ctx, ids)
}

// resolve looks up details per candidate. Lookup failures and candidates
// without a website are dropped; their emails are definitionally empty.
func (s *Searcher) resolve(ctx context.Context, ids []string) []Candidate {
	var out []Candidate
	for _, id := range ids {
		detail, err := s.Client.Details(ctx, id)
		if err != nil {
			s.logf("details %s failed: %s", id, redact.Secrets(err.Error()))
			continue
		}
		if detail.Website == "" {
			continue
		}
		out = append(out, Candidate{
			PlaceID: id,
			Name:    detail.Name,
			Website: detail.Website,
		})
	}
	return out
}

func (s *Searcher) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
