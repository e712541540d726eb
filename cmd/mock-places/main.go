package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leadsmith/leadsmith/internal/mockplaces"
)

// mock-places serves a canned place-search API for local runs: point
// --places-base-url at it and seed it with --query/--place flags.
func main() {
	addr := defaultString("MOCK_PLACES_ADDR", ":8080")

	fs := flag.NewFlagSet("mock-places", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	var queries stringList
	var placeSpecs stringList
	fs.Var(&queries, "query", "query=id1,id2 pair served as one result page (repeatable)")
	fs.Var(&placeSpecs, "place", "id=name=website details entry (repeatable)")
	_ = fs.Parse(os.Args[1:])

	srv := mockplaces.New()
	for _, q := range queries {
		name, ids, ok := strings.Cut(q, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "bad --query %q, want query=id1,id2\n", q)
			os.Exit(2)
		}
		srv.AddQuery(name, mockplaces.Page{PlaceIDs: splitCSV(ids)})
	}
	for _, p := range placeSpecs {
		parts := strings.SplitN(p, "=", 3)
		if len(parts) < 2 {
			fmt.Fprintf(os.Stderr, "bad --place %q, want id=name=website\n", p)
			os.Exit(2)
		}
		place := mockplaces.Place{ID: parts[0], Name: parts[1]}
		if len(parts) == 3 {
			place.Website = parts[2]
		}
		srv.AddPlace(place)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-places listening on %s\n", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
