package expand

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/leadsmith/leadsmith/internal/textgen"
	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"
)

// QueryCount is the fixed number of search queries produced per request.
const QueryCount = 3

const instruction = "Generate three diverse search queries for local business information based on the user's input. Return one query per line."

// Leading enumeration markers the generator likes to emit ("1. ", "2) ").
var enumPrefixRe = regexp.MustCompile(`^\d+[.)]\s*`)

// Expander turns one free-text request into QueryCount diversified search
// queries via the text-generation collaborator.
type Expander struct {
	Gen    textgen.Generator
	Logger *log.Logger
}

// Expand always returns exactly QueryCount strings. Unusable generator
// output is padded with empty strings, and a collaborator failure degrades
// to all-empty output rather than propagating; callers skip empty queries.
func (e *Expander) Expand(ctx context.Context, request string) []string {
	queries := make([]string, QueryCount)

	text, err := e.Gen.Generate(ctx, instruction, request)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Printf("query expansion failed, continuing with no queries: %s", redact.Secrets(err.Error()))
		}
		return queries
	}

	i := 0
	for _, line := range strings.Split(text, "\n") {
		if i == QueryCount {
			break
		}
		q := cleanQuery(line)
		if q == "" {
			continue
		}
		queries[i] = q
		i++
	}
	return queries
}

func cleanQuery(line string) string {
	s := strings.TrimSpace(line)
	s = enumPrefixRe.ReplaceAllString(s, "")
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}
