package mockplaces

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Call records a request made to the mock upstream, with its arrival time so
// tests can assert pagination delays.
type Call struct {
	Path  string
	Query url.Values
	At    time.Time
}

// Page is one canned page of text-search results.
type Page struct {
	Status        string
	PlaceIDs      []string
	NextPageToken string
}

// Place is a canned details entry. An empty Website is omitted from the
// details response body, mirroring the real API.
type Place struct {
	ID      string
	Name    string
	Website string
}

// Server implements a minimal place-search API surface: text search with
// continuation tokens, and per-place details.
type Server struct {
	mu      sync.Mutex
	calls   []Call
	first   map[string]Page // query -> first page
	byToken map[string]Page // continuation token -> next page
	details map[string]Place
}

func New() *Server {
	return &Server{
		first:   make(map[string]Page),
		byToken: make(map[string]Page),
		details: make(map[string]Place),
	}
}

// AddQuery registers the page sequence served for a query. Pages after the
// first are reachable only through the prior page's NextPageToken.
func (s *Server) AddQuery(query string, pages ...Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(pages) == 0 {
		return
	}
	s.first[query] = pages[0]
	for i := 0; i < len(pages)-1; i++ {
		if pages[i].NextPageToken != "" {
			s.byToken[pages[i].NextPageToken] = pages[i+1]
		}
	}
}

// AddPlace registers a details entry.
func (s *Server) AddPlace(p Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[p.ID] = p
}

// Calls returns a snapshot of recorded calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// SearchCalls returns only the text-search calls, in arrival order.
func (s *Server) SearchCalls() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Path == "/maps/api/place/textsearch/json" {
			out = append(out, c)
		}
	}
	return out
}

// Handler returns an http.Handler serving the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/place/textsearch/json", s.handleTextSearch)
	mux.HandleFunc("/maps/api/place/details/json", s.handleDetails)
	return mux
}

func (s *Server) record(r *http.Request) url.Values {
	q := r.URL.Query()
	s.mu.Lock()
	s.calls = append(s.calls, Call{Path: r.URL.Path, Query: q, At: time.Now()})
	s.mu.Unlock()
	return q
}

func (s *Server) handleTextSearch(w http.ResponseWriter, r *http.Request) {
	q := s.record(r)

	s.mu.Lock()
	var page Page
	var ok bool
	if token := q.Get("pagetoken"); token != "" {
		page, ok = s.byToken[token]
	} else {
		page, ok = s.first[q.Get("query")]
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, map[string]any{"status": "ZERO_RESULTS", "results": []any{}})
		return
	}

	status := page.Status
	if status == "" {
		status = "OK"
	}
	results := make([]map[string]string, 0, len(page.PlaceIDs))
	for _, id := range page.PlaceIDs {
		results = append(results, map[string]string{"place_id": id})
	}
	body := map[string]any{"status": status, "results": results}
	if page.NextPageToken != "" {
		body["next_page_token"] = page.NextPageToken
	}
	writeJSON(w, body)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	q := s.record(r)

	s.mu.Lock()
	p, ok := s.details[q.Get("place_id")]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, map[string]any{"status": "NOT_FOUND"})
		return
	}
	result := map[string]any{"name": p.Name}
	if p.Website != "" {
		result["website"] = p.Website
	}
	writeJSON(w, map[string]any{"status": "OK", "result": result})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
