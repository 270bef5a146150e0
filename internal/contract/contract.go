// Package contract builds the Safety Contract (C5): the Plan's constraints
// re-scoped to the effective schema, with allowed_columns expanded to cover
// every column any MUST fragment references.
package contract

import (
	"regexp"
	"strings"

	"github.com/edr-t2sql/t2sql/internal/planmodel"
	"github.com/edr-t2sql/t2sql/internal/schema"
)

// Contract is C5's output, handed to the Generator (C6) and reused by the
// Guard (C10) to narrow its own column whitelist.
type Contract struct {
	AllowedTables   []string
	AllowedColumns  map[string][]string
	MustTables      []string
	MustJoins       []string
	MustPredicates  []string
	ShouldTables    []string
	ShouldPredicates []string
	ShouldProjection []string
	MayPredicates   []string
	MayProjection   []string
	TimeframeDays   *int
	ForbiddenClauses []string
}

var tableColumnRefPattern = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\.([a-zA-Z_][a-zA-Z0-9_]*)\b`)

// Build derives a Contract from plan and the effective schema (already
// reduced by C3 to the merged C1+C2 candidate tables), with
// selectedColumns as the starting per-table column whitelist from C3's
// column-selection scoring.
func Build(plan *planmodel.Plan, effective *schema.Schema, selectedColumns map[string][]string) Contract {
	allowedTables := effective.TableNames()

	allowedColumns := make(map[string][]string, len(allowedTables))
	for _, t := range allowedTables {
		allowedColumns[strings.ToLower(t)] = append([]string(nil), selectedColumns[t]...)
	}

	fragments := append(append(append([]string(nil), plan.MustPredicates...), plan.MustJoins...), plan.GroupBy...)
	fragments = append(fragments, plan.Aggregates...)

	for _, frag := range fragments {
		for _, m := range tableColumnRefPattern.FindAllStringSubmatch(frag, -1) {
			table, col := strings.ToLower(m[1]), m[2]
			if !effective.HasTable(table) {
				continue
			}
			if !containsFold(allowedColumns[table], col) {
				allowedColumns[table] = append(allowedColumns[table], col)
			}
		}
	}

	forbidden := []string{"ORDER BY"}
	if plan.Task == "trend" {
		forbidden = nil
	}

	return Contract{
		AllowedTables:    allowedTables,
		AllowedColumns:   allowedColumns,
		MustTables:       plan.MustTables,
		MustJoins:        plan.MustJoins,
		MustPredicates:   plan.MustPredicates,
		ShouldTables:     plan.ShouldTables,
		ShouldPredicates: plan.ShouldPredicates,
		ShouldProjection: plan.ShouldProjection,
		MayPredicates:    plan.MayPredicates,
		MayProjection:    plan.MayProjection,
		TimeframeDays:    plan.TimeframeDays,
		ForbiddenClauses: forbidden,
	}
}

func containsFold(list []string, s string) bool {
	for _, l := range list {
		if strings.EqualFold(l, s) {
			return true
		}
	}
	return false
}
