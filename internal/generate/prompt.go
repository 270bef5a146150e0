package generate

import (
	"fmt"
	"strings"

	"github.com/edr-t2sql/t2sql/internal/contract"
)

const systemPrompt = `You are a MySQL query generator. Given a question, a Safety Contract, and an
allowed schema subset, produce ONLY a strict JSON object:

{"candidates": [{"label": "c1", "sql": "SELECT ...", "confidence": 0.9,
                  "checks": [{"name": "uses_only_allowed_tables", "pass": true}]}]}

Produce between 1 and 3 candidates, ordered best-first.

Rules:
1. Reference ONLY tables/columns from "allowed tables" and "allowed columns".
2. The SQL MUST include every fragment listed under "must predicates" and "must joins",
   verbatim or logically equivalent.
3. Do NOT use any clause listed under "forbidden clauses".
4. If "timeframe days" is set, filter the relevant time column using
   DATE_SUB(NOW(), INTERVAL <n> DAY) — never hardcode a calendar date.
5. For a trend/daily-bucket question, group by DATE(<time column>) and order chronologically.
6. Unless the question asks for a single aggregated total, add LIMIT 200 if no LIMIT is present.
7. Every identifier must be plain ASCII; never include literal Chinese text in the SQL itself.
8. Self-check each candidate against rules 1-4 and report the result under "checks".`

// Build assembles the Generator user message: question, contract-derived
// allowed tables/columns, must/should/may constraints, forbidden clauses,
// timeframe, and ready-made time-window/day-bucket SQL fragments for
// timeframe/trend questions. n caps the requested candidate count (clamped
// to at most 3); n <= 0 falls back to the prompt's default of up to 3.
func Build(question string, c contract.Contract, task string, n int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n\n", question)

	if n > 0 {
		if n > 3 {
			n = 3
		}
		fmt.Fprintf(&b, "Produce exactly %d candidate(s).\n\n", n)
	}

	b.WriteString("Allowed tables:\n")
	for _, t := range c.AllowedTables {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nAllowed columns:\n")
	for table, cols := range c.AllowedColumns {
		fmt.Fprintf(&b, "- %s: %s\n", table, strings.Join(cols, ", "))
	}

	if len(c.MustPredicates) > 0 {
		fmt.Fprintf(&b, "\nMust predicates:\n- %s\n", strings.Join(c.MustPredicates, "\n- "))
	}
	if len(c.MustJoins) > 0 {
		fmt.Fprintf(&b, "\nMust joins:\n- %s\n", strings.Join(c.MustJoins, "\n- "))
	}
	if len(c.ShouldPredicates) > 0 {
		fmt.Fprintf(&b, "\nShould predicates (prefer, not required):\n- %s\n", strings.Join(c.ShouldPredicates, "\n- "))
	}
	if len(c.ShouldProjection) > 0 {
		fmt.Fprintf(&b, "\nShould projection:\n- %s\n", strings.Join(c.ShouldProjection, "\n- "))
	}
	if len(c.ForbiddenClauses) > 0 {
		fmt.Fprintf(&b, "\nForbidden clauses:\n- %s\n", strings.Join(c.ForbiddenClauses, "\n- "))
	}

	if c.TimeframeDays != nil {
		fmt.Fprintf(&b, "\nTimeframe days: %d\n", *c.TimeframeDays)
		fmt.Fprintf(&b, "Ready-made time filter fragment: DATE_SUB(NOW(), INTERVAL %d DAY)\n", *c.TimeframeDays)
	}

	if task == "trend" {
		b.WriteString("\nThis is a trend question: group by DATE(<time column>) and order by the date column.\n")
	}

	b.WriteString("\nRespond with ONLY the JSON object described above.")
	return b.String()
}
