// Package validate implements the AST Validator (C7) and Minimal Repairer
// (C8): each candidate's SQL is parsed and checked against the Safety
// Contract's MUST/allowed constraints; a candidate that only fails on a
// missing MUST predicate is repaired by injecting the missing atom rather
// than rejected outright.
package validate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/edr-t2sql/t2sql/internal/candidate"
	"github.com/edr-t2sql/t2sql/internal/contract"
	"github.com/edr-t2sql/t2sql/internal/normalize"
	"github.com/edr-t2sql/t2sql/internal/sqlast"
)

// Result is one candidate's post-validation outcome.
type Result struct {
	Candidate candidate.Candidate
	Passed    bool
	Errors    []string
}

// CheckMustConstraints reports whether facts satisfies every must_table,
// must_join, and must_predicate in c, and the human-readable reasons for
// any that do not.
func CheckMustConstraints(facts *sqlast.Facts, c contract.Contract) (bool, []string) {
	var errs []string

	for _, t := range c.MustTables {
		if !containsFold(facts.UsedTables, t) {
			errs = append(errs, fmt.Sprintf("missing required table: %s", t))
		}
	}

	for _, join := range c.MustJoins {
		if !joinPresent(facts.JoinConditions, join) {
			errs = append(errs, fmt.Sprintf("missing required join: %s", join))
		}
	}

	for _, pred := range c.MustPredicates {
		for _, atom := range normalize.SplitTopLevelAnd(pred) {
			if !normalize.ContainsFragment(normalize.Fragment(atom), facts.WhereConditions) {
				errs = append(errs, fmt.Sprintf("missing required predicate: %s", atom))
			}
		}
	}

	return len(errs) == 0, errs
}

// CheckAllowedScope reports whether facts references only tables/columns in
// c's allowed sets, tolerating SELECT aliases and ORDER BY ordinal columns.
func CheckAllowedScope(facts *sqlast.Facts, c contract.Contract) (bool, []string) {
	var errs []string

	for _, t := range facts.UsedTables {
		if !containsFold(c.AllowedTables, t) {
			errs = append(errs, fmt.Sprintf("unauthorized table: %s", t))
		}
	}

	allowedCols := map[string]struct{}{}
	for table, cols := range c.AllowedColumns {
		for _, col := range cols {
			allowedCols[strings.ToLower(col)] = struct{}{}
			allowedCols[strings.ToLower(table)+"."+strings.ToLower(col)] = struct{}{}
		}
	}

	for _, col := range facts.UsedColumns {
		bare := col
		if idx := strings.LastIndex(col, "."); idx >= 0 {
			bare = col[idx+1:]
		}
		if _, ok := allowedCols[col]; ok {
			continue
		}
		if _, ok := allowedCols[bare]; ok {
			continue
		}
		if containsFold(facts.SelectAliases, bare) {
			continue
		}
		errs = append(errs, fmt.Sprintf("unauthorized column: %s", col))
	}

	return len(errs) == 0, errs
}

func joinPresent(joins []string, required string) bool {
	needle := normalize.Fragment(required)
	return normalize.ContainsFragment(needle, joins)
}

func containsFold(list []string, s string) bool {
	for _, l := range list {
		if strings.EqualFold(l, s) {
			return true
		}
	}
	return false
}

// ValidateOne parses cand.SQL and checks it against c. If it fails only on
// missing MUST predicates, it repairs once and re-checks before giving up.
func ValidateOne(cand candidate.Candidate, c contract.Contract) Result {
	facts, err := sqlast.Parse(cand.SQL)
	if err != nil {
		return Result{Candidate: cand, Passed: false, Errors: []string{fmt.Sprintf("parse failed: %v", err)}}
	}

	mustOK, mustErrs := CheckMustConstraints(facts, c)
	scopeOK, scopeErrs := CheckAllowedScope(facts, c)
	if mustOK && scopeOK {
		return Result{Candidate: cand, Passed: true}
	}

	if scopeOK && !mustOK {
		if repaired, ok := Repair(cand.SQL, c); ok {
			if repairedFacts, err := sqlast.Parse(repaired); err == nil {
				if ok2, _ := CheckMustConstraints(repairedFacts, c); ok2 {
					if ok3, _ := CheckAllowedScope(repairedFacts, c); ok3 {
						cand.SQL = repaired
						cand.Repaired = true
						return Result{Candidate: cand, Passed: true}
					}
				}
			}
		}
	}

	return Result{Candidate: cand, Passed: false, Errors: append(mustErrs, scopeErrs...)}
}

// ValidateAll fans out ValidateOne across candidates concurrently, as the
// per-candidate AST check and repair are independent and side-effect-free.
func ValidateAll(ctx context.Context, candidates []candidate.Candidate, c contract.Contract) ([]Result, error) {
	results := make([]Result, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			results[i] = ValidateOne(cand, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
