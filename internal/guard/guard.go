// Package guard implements the SQL Guard (C10): the last, fail-closed gate
// before a query is returned — reject obviously-wrong output (CJK text,
// placeholders, SELECT *), reject anything outside the allowed
// tables/columns, then rewrite what remains (ORDER BY stripping, INTERVAL
// literal fixups, reserved-identifier quoting, LIMIT clamping).
package guard

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/edr-t2sql/t2sql/internal/contract"
	"github.com/edr-t2sql/t2sql/internal/errs"
	"github.com/edr-t2sql/t2sql/internal/sqlast"
)

// DefaultMaxLimit is the LIMIT clamp applied when the caller doesn't
// override it and the query isn't a single-row aggregate.
const DefaultMaxLimit = 200

// reservedLike are identifiers that collide with MySQL keywords closely
// enough that the Generator sometimes emits them unquoted.
var reservedLike = []string{"check", "desc", "key", "user"}

// defaultDerivedAliases are names a trend/rank query commonly uses for a
// computed column; these are never rejected as unauthorized even though
// they don't appear in any table's column list.
var defaultDerivedAliases = map[string]struct{}{
	"d": {}, "date": {}, "cnt": {}, "count": {}, "total": {}, "num": {}, "dt": {}, "day": {},
}

var (
	cjkPattern         = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)
	placeholderPattern = regexp.MustCompile(`(?i)specific_\w+`)
	selectStarPattern  = regexp.MustCompile(`(?i)select\s*\*`)
	lineCommentPattern = regexp.MustCompile(`(?m)--.*?$`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingSemicolon  = regexp.MustCompile(`;\s*$`)
	limitOffsetCount   = regexp.MustCompile(`(?i)\blimit\s*(\d+)\s*,\s*(\d+)`)
	limitSingle        = regexp.MustCompile(`(?i)\blimit\s*(\d+)(\s*,)?`)
	intervalLiteral    = regexp.MustCompile(`(?i)\bINTERVAL\s+'(\d+)'\s+(SECOND|MINUTE|HOUR|DAY|WEEK|MONTH|QUARTER|YEAR)`)
	orderByPattern     = regexp.MustCompile(`(?i)\border\s+by\b[^;]*`)
	quotedAscDesc      = regexp.MustCompile("(?i)`\\s*(asc|desc)\\s*`")
	limitPattern       = regexp.MustCompile(`(?i)\blimit\b`)
	groupByPattern     = regexp.MustCompile(`(?i)\bgroup\s+by\b`)
	aggFuncPattern     = regexp.MustCompile(`(?i)\b(count|sum|avg|min|max)\s*\(`)
)

// permittedAliases reads SQL_PERMITTED_ALIASES (comma-separated) on top of
// defaultDerivedAliases.
func permittedAliases() map[string]struct{} {
	out := make(map[string]struct{}, len(defaultDerivedAliases))
	for a := range defaultDerivedAliases {
		out[a] = struct{}{}
	}
	for _, a := range strings.Split(os.Getenv("SQL_PERMITTED_ALIASES"), ",") {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			out[a] = struct{}{}
		}
	}
	return out
}

// permissiveMode reports whether SQL_PERMISSIVE_MODE=1 is set: in this mode
// the Guard skips ORDER BY stripping and LIMIT clamping entirely, returning
// the rewritten SQL as soon as table/column scope checks pass.
func permissiveMode() bool {
	return os.Getenv("SQL_PERMISSIVE_MODE") == "1"
}

// Rewrite validates sql against c and rewrites it into the final,
// executable form. keepOrderBy forces ORDER BY to survive even outside
// permissive mode (set for trend tasks).
func Rewrite(sql string, c contract.Contract, keepOrderBy bool, maxLimit int) (string, error) {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}

	cleaned := stripComments(sql)

	if cjkPattern.MatchString(cleaned) {
		return "", fmt.Errorf("%w: contains CJK text", errs.ErrGuardRejected)
	}
	if placeholderPattern.MatchString(cleaned) {
		return "", fmt.Errorf("%w: contains example placeholder", errs.ErrGuardRejected)
	}
	if selectStarPattern.MatchString(cleaned) {
		return "", fmt.Errorf("%w: SELECT * is forbidden", errs.ErrGuardRejected)
	}

	facts, err := sqlast.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: parse failed: %v", errs.ErrGuardRejected, err)
	}
	if facts.TopNodeType != "select" && facts.TopNodeType != "union" && facts.TopNodeType != "with" {
		return "", fmt.Errorf("%w: only SELECT/UNION/WITH queries are allowed", errs.ErrGuardRejected)
	}

	if err := checkScope(facts, c); err != nil {
		return "", err
	}

	rewritten := cleaned
	if !permissiveMode() && !keepOrderBy {
		rewritten = stripOrderBy(rewritten)
	}

	rewritten = trailingSemicolon.ReplaceAllString(strings.TrimSpace(rewritten), "")
	rewritten = intervalLiteral.ReplaceAllString(rewritten, "INTERVAL $1 $2")
	rewritten = quoteReserved(rewritten)
	rewritten = unquoteOrderDir(rewritten)

	if permissiveMode() {
		return rewritten, nil
	}

	if isSingleRowAggregate(rewritten) {
		return stripLimit(rewritten), nil
	}

	if !limitPattern.MatchString(rewritten) {
		return fmt.Sprintf("%s LIMIT %d", rewritten, maxLimit), nil
	}
	return clampLimit(rewritten, maxLimit), nil
}

func checkScope(facts *sqlast.Facts, c contract.Contract) error {
	for _, t := range facts.UsedTables {
		if !containsFold(c.AllowedTables, t) {
			return fmt.Errorf("%w: unauthorized table %q", errs.ErrGuardRejected, t)
		}
	}

	aliases := permittedAliases()
	allowed := map[string]struct{}{}
	for table, cols := range c.AllowedColumns {
		for _, col := range cols {
			allowed[strings.ToLower(col)] = struct{}{}
			allowed[strings.ToLower(table)+"."+strings.ToLower(col)] = struct{}{}
		}
	}

	for _, col := range facts.UsedColumns {
		bare := col
		if idx := strings.LastIndex(col, "."); idx >= 0 {
			bare = col[idx+1:]
		}
		if _, ok := allowed[col]; ok {
			continue
		}
		if _, ok := allowed[bare]; ok {
			continue
		}
		if _, ok := aliases[bare]; ok {
			continue
		}
		if containsFold(facts.SelectAliases, bare) {
			continue
		}
		if _, err := strconv.Atoi(bare); err == nil {
			continue
		}
		return fmt.Errorf("%w: unauthorized column %q", errs.ErrGuardRejected, col)
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, l := range list {
		if strings.EqualFold(l, s) {
			return true
		}
	}
	return false
}

func stripComments(sql string) string {
	sql = blockCommentPattern.ReplaceAllString(sql, " ")
	sql = lineCommentPattern.ReplaceAllString(sql, " ")
	return sql
}

func stripOrderBy(sql string) string {
	return strings.TrimRight(orderByPattern.ReplaceAllString(sql, ""), " ")
}

func quoteReserved(sql string) string {
	for _, kw := range reservedLike {
		pattern := regexp.MustCompile(`(?i)(^|[^` + "`" + `\w])(` + kw + `)([^` + "`" + `\w]|$)`)
		sql = pattern.ReplaceAllString(sql, "${1}`${2}`${3}")
	}
	return sql
}

func unquoteOrderDir(sql string) string {
	return quotedAscDesc.ReplaceAllStringFunc(sql, func(m string) string {
		return strings.ToUpper(strings.Trim(m, "` "))
	})
}

func isSingleRowAggregate(sql string) bool {
	return aggFuncPattern.MatchString(sql) && !groupByPattern.MatchString(sql)
}

func stripLimit(sql string) string {
	sql = limitOffsetCount.ReplaceAllString(sql, "")
	sql = limitSingle.ReplaceAllString(sql, "")
	return strings.TrimRight(sql, " \t\n")
}

func clampLimit(sql string, maxLimit int) string {
	sql = limitOffsetCount.ReplaceAllStringFunc(sql, func(m string) string {
		groups := limitOffsetCount.FindStringSubmatch(m)
		offset := groups[1]
		count, _ := strconv.Atoi(groups[2])
		if count > maxLimit {
			count = maxLimit
		}
		return fmt.Sprintf("LIMIT %s, %d", offset, count)
	})
	sql = limitSingle.ReplaceAllStringFunc(sql, func(m string) string {
		groups := limitSingle.FindStringSubmatch(m)
		if groups[2] != "" {
			// "LIMIT offset, count": already clamped above.
			return m
		}
		count, _ := strconv.Atoi(groups[1])
		if count > maxLimit {
			count = maxLimit
		}
		return fmt.Sprintf("LIMIT %d", count)
	})
	return sql
}
