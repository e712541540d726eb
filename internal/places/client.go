package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/leadsmith/leadsmith/pkg/pipeline/core"
)

// StatusOK is the upstream status value for a usable search response.
const StatusOK = "OK"

// Candidate is one business entry returned by a place search, enriched with
// its display name and website once details are resolved.
type Candidate struct {
	PlaceID string
	Name    string
	Website string
}

// SearchPage is one page of a text-search response.
type SearchPage struct {
	Status        string `json:"status"`
	Results       []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
	NextPageToken string `json:"next_page_token"`
}

// Detail is the name/website pair resolved for one place identifier.
type Detail struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

type detailEnvelope struct {
	Status string `json:"status"`
	Result Detail `json:"result"`
}

// Client calls the place-search upstream (text search + place details).
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient builds a client against baseURL (e.g. https://maps.googleapis.com).
// A nil httpc falls back to http.DefaultClient.
func NewClient(baseURL, apiKey string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpc:   httpc,
	}
}

// TextSearch fetches one page of results for query. pageToken is empty for
// the first page and the prior page's continuation token afterwards.
func (c *Client) TextSearch(ctx context.Context, query, pageToken string) (SearchPage, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	if pageToken != "" {
		q.Set("pagetoken", pageToken)
	} else {
		q.Set("query", query)
	}

	var page SearchPage
	if err := c.getJSON(ctx, "/maps/api/place/textsearch/json", q, &page); err != nil {
		return SearchPage{}, err
	}
	return page, nil
}

// Details resolves one place identifier to its name and website. An absent
// website field stays empty.
func (c *Client) Details(ctx context.Context, placeID string) (Detail, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("place_id", placeID)
	q.Set("fields", "name,website")

	var env detailEnvelope
	if err := c.getJSON(ctx, "/maps/api/place/details/json", q, &env); err != nil {
		return Detail{}, err
	}
	if env.Status != StatusOK {
		return Detail{}, fmt.Errorf("place details %s: status %q", placeID, env.Status)
	}
	return env.Result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		err := fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
		if resp.StatusCode == 429 || resp.StatusCode/100 == 5 {
			return &core.TransientError{Err: err}
		}
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: parse response: %w", path, err)
	}
	return nil
}
