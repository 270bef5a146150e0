// Package context assembles the Schema/KB Context Builder (C3) output: a
// reduced schema view and KB snippet sized to fit the Planner prompt.
package context

import (
	"strings"

	"github.com/edr-t2sql/t2sql/internal/kb"
	"github.com/edr-t2sql/t2sql/internal/lexical"
	"github.com/edr-t2sql/t2sql/internal/limits"
	"github.com/edr-t2sql/t2sql/internal/schema"
)

// Built is C3's full output.
type Built struct {
	EffectiveSchema      *schema.Schema
	KBSnippet            string
	SelectedColumnsByTable map[string][]string
}

// Build assembles the reduced schema, KB snippet, and per-table selected
// columns for tableNames (the union of C1+C2 candidates, already capped at
// 12 by retrieval.Merge), bounded by limiter.
func Build(s *schema.Schema, catalog *kb.Catalog, tableNames []string, tokens []string, limiter *limits.ContextLimiter) Built {
	l := limiter.Limits()
	tableNames = limiter.TruncateTables(tableNames)

	effective := s.Filter(tableNames)

	var snippetParts []string
	total := 0
	for _, name := range tableNames {
		entry, ok := catalog.Table(name)
		if !ok {
			continue
		}
		snippet := kb.Snippet(entry, l.MaxKBCharsPerTable)
		if snippet == "" {
			continue
		}
		if total+len(snippet) > l.MaxKBCharsTotal {
			remaining := l.MaxKBCharsTotal - total
			if remaining <= 0 {
				break
			}
			snippet = snippet[:remaining]
		}
		snippetParts = append(snippetParts, snippet)
		total += len(snippet)
		if total >= l.MaxKBCharsTotal {
			break
		}
	}

	selected := lexical.SelectColumns(effective, tableNames, tokens, l.MaxColumnsPerTable)
	for table, cols := range selected {
		selected[table] = limiter.TruncateColumns(cols)
	}

	return Built{
		EffectiveSchema:        effective,
		KBSnippet:               strings.Join(snippetParts, "\n"),
		SelectedColumnsByTable: selected,
	}
}
