package validate

import (
	"fmt"
	"regexp"
	"strings"

	"vitess.io/vitess/go/vt/sqlparser"

	"github.com/edr-t2sql/t2sql/internal/contract"
	"github.com/edr-t2sql/t2sql/internal/normalize"
	"github.com/edr-t2sql/t2sql/internal/sqlast"
)

var clauseBoundaryPattern = regexp.MustCompile(`(?i)(\bgroup\s+by\b|\border\s+by\b|\blimit\b)`)
var wherePattern = regexp.MustCompile(`(?i)\bwhere\b`)

// Repair injects every must_predicate atom missing from sql's WHERE clause,
// parsing each atom standalone to validate it is well-formed before falling
// back to plain string injection. It never touches must_joins or
// must_tables: a candidate missing those is rejected outright, not repaired.
func Repair(sql string, c contract.Contract) (string, bool) {
	facts, err := sqlast.Parse(sql)
	if err != nil {
		return sql, false
	}

	var missing []string
	for _, pred := range c.MustPredicates {
		for _, atom := range normalize.SplitTopLevelAnd(pred) {
			if !normalize.ContainsFragment(normalize.Fragment(atom), facts.WhereConditions) {
				missing = append(missing, atom)
			}
		}
	}
	if len(missing) == 0 {
		return sql, false
	}

	return injectPredicates(sql, missing), true
}

// injectPredicates conjoins the missing atoms into sql's WHERE clause,
// appending a new WHERE before any GROUP BY/ORDER BY/LIMIT clause when none
// exists yet.
func injectPredicates(sql string, predicates []string) string {
	var wrapped []string
	for _, p := range predicates {
		wrapped = append(wrapped, fmt.Sprintf("(%s)", validatedAtom(p)))
	}
	clause := strings.Join(wrapped, " AND ")

	if loc := wherePattern.FindStringIndex(sql); loc != nil {
		return sql[:loc[0]] + "WHERE " + clause + " AND " + sql[loc[1]:]
	}

	loc := clauseBoundaryPattern.FindStringIndex(sql)
	if loc == nil {
		return strings.TrimRight(sql, " \t\n") + fmt.Sprintf(" WHERE %s", clause)
	}
	return sql[:loc[0]] + fmt.Sprintf("WHERE %s ", clause) + sql[loc[0]:]
}

// validatedAtom parses atom as a standalone WHERE expression and re-emits it
// so an atom that doesn't round-trip (unbalanced quotes, a stray dialect
// keyword) can't inject something the parser itself wouldn't accept. An atom
// that fails to parse is injected as a quoted string literal instead: it
// becomes an inert WHERE clause rather than a malformed one.
func validatedAtom(atom string) string {
	expr, err := sqlparser.ParseExpr(atom)
	if err != nil {
		return fmt.Sprintf("%q", atom)
	}
	return sqlparser.String(expr)
}
