// Package sqlast wraps vitess's MySQL-dialect SQL parser to extract the
// table/column/join/where-condition facts the AST Validator (C7) and the
// SQL Guard (C10) both need; a candidate that fails to parse is reported as
// an error so malformed SQL is rejected by either stage.
package sqlast

import (
	"fmt"
	"strings"

	"vitess.io/vitess/go/vt/sqlparser"
)

// Facts is everything C7/C10 need out of one parsed statement.
type Facts struct {
	Statement      sqlparser.Statement
	TopNodeType    string
	UsedTables     []string // lowercased, alias stripped
	UsedColumns    []string // lowercased; Qualifier.Column form where qualified
	JoinConditions []string // serialized ON expressions
	WhereConditions []string // serialized WHERE expressions (top-level, per SELECT)
	SelectAliases  []string // lowercased AS-aliases in the SELECT list
}

// Parse parses sql as a single MySQL statement and extracts Facts. A parse
// failure is reported as an error: both C7 and C10 treat it as a hard,
// fail-closed rejection.
func Parse(sql string) (*Facts, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("sqlast: parse: %w", err)
	}

	f := &Facts{
		Statement:   stmt,
		TopNodeType: topNodeType(stmt),
	}

	tableSet := map[string]struct{}{}
	columnSet := map[string]struct{}{}

	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case sqlparser.TableName:
			if !n.IsEmpty() {
				name := strings.ToLower(n.Name.String())
				if _, ok := tableSet[name]; !ok {
					tableSet[name] = struct{}{}
					f.UsedTables = append(f.UsedTables, name)
				}
			}
		case *sqlparser.ColName:
			col := columnRef(n)
			if _, ok := columnSet[col]; !ok {
				columnSet[col] = struct{}{}
				f.UsedColumns = append(f.UsedColumns, col)
			}
		case *sqlparser.JoinTableExpr:
			if n.Condition.On != nil {
				f.JoinConditions = append(f.JoinConditions, sqlparser.String(n.Condition.On))
			}
		case *sqlparser.Where:
			if n != nil && n.Type == sqlparser.WhereStr {
				f.WhereConditions = append(f.WhereConditions, sqlparser.String(n.Expr))
			}
		case *sqlparser.AliasedExpr:
			if !n.As.IsEmpty() {
				f.SelectAliases = append(f.SelectAliases, strings.ToLower(n.As.String()))
			}
		}
		return true, nil
	}, stmt)

	return f, nil
}

func columnRef(c *sqlparser.ColName) string {
	name := strings.ToLower(c.Name.String())
	if !c.Qualifier.IsEmpty() {
		return strings.ToLower(c.Qualifier.Name.String()) + "." + name
	}
	return name
}

func topNodeType(stmt sqlparser.Statement) string {
	switch stmt.(type) {
	case *sqlparser.Select:
		return "select"
	case *sqlparser.Union:
		return "union"
	case *sqlparser.With:
		return "with"
	default:
		return fmt.Sprintf("%T", stmt)
	}
}

// Emit round-trips a statement back to SQL text, the same text
// sqlparser.Parse would accept again. Neither the Validator nor the Guard
// calls it: the Guard parses the candidate to reject malformed SQL and then
// rewrites the original text, not an emitted one.
func Emit(stmt sqlparser.Statement) string {
	return sqlparser.String(stmt)
}
