// Package selector implements the deterministic selector (C9): among the
// candidates that passed validation/repair, pick one reproducibly rather
// than trusting the Generator's own ordering.
package selector

import (
	"sort"

	"github.com/edr-t2sql/t2sql/internal/candidate"
	"github.com/edr-t2sql/t2sql/internal/errs"
	"github.com/edr-t2sql/t2sql/internal/validate"
)

// Selected is the chosen candidate plus the other passing candidates, kept
// for the output record's additional_candidate entries.
type Selected struct {
	Candidate candidate.Candidate
	Rejected  []candidate.Candidate
}

// entry pairs a passing candidate with its original Generator index, the
// sort tiebreaker of last resort.
type entry struct {
	index     int
	candidate candidate.Candidate
}

// Select sorts the passing results by (repaired, len(sql), original index)
// — unrepaired beats repaired, shorter SQL beats longer, and the earliest
// Generator candidate wins any remaining tie — and returns the first.
func Select(results []validate.Result) (Selected, error) {
	var passing []entry
	for i, r := range results {
		if r.Passed {
			passing = append(passing, entry{index: i, candidate: r.Candidate})
		}
	}
	if len(passing) == 0 {
		return Selected{}, errs.ErrAllCandidatesRejected
	}

	sort.SliceStable(passing, func(i, j int) bool {
		a, b := passing[i], passing[j]
		if a.candidate.Repaired != b.candidate.Repaired {
			return !a.candidate.Repaired
		}
		if len(a.candidate.SQL) != len(b.candidate.SQL) {
			return len(a.candidate.SQL) < len(b.candidate.SQL)
		}
		return a.index < b.index
	})

	var rejected []candidate.Candidate
	for _, p := range passing[1:] {
		rejected = append(rejected, p.candidate)
	}

	return Selected{Candidate: passing[0].candidate, Rejected: rejected}, nil
}
