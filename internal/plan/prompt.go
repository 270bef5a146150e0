package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edr-t2sql/t2sql/internal/context"
	"github.com/edr-t2sql/t2sql/internal/lexical"
)

const systemPrompt = `You are a SQL planning assistant. Given a natural-language question
(possibly in Chinese) against a known relational schema, produce ONLY a strict JSON object
describing a Plan. Do not include any text outside the JSON object.

The Plan has these fields:
- task: one of list, count, trend, rank, detail, filter, distribution
- subject: one of app, node, account, user, endpoint, service, process, risk
- risk: array of free-form risk tags
- must_tables, must_joins, must_predicates: hard requirements the generated SQL MUST satisfy
- should_tables, should_predicates, should_projection: preferences, used to rank candidates
- may_predicates, may_projection: optional, informational only
- timeframe_days: integer or null
- groupby, aggregates: ordered SQL fragments
- confidence: float in [0,1]
- reasoning: a short free-text explanation

Rules:
1. Use ONLY tables and columns from the "allowed tables" and "allowed columns" lists below.
2. Every table referenced by any predicate, join, groupby, or aggregate fragment must also
   appear in must_tables or should_tables.
3. Every column reference must be written as table.column.
4. must_predicates/must_joins are hard gates: omit anything you are not certain is required.
5. Prefer the fewest tables that answer the question.`

const fewShot = `Example 1:
Question: 哪些应用存在弱口令?
Allowed tables: weak_password_app, weak_password_app_detail
Plan: {"task":"list","subject":"app","must_tables":["weak_password_app","weak_password_app_detail"],
"must_joins":["weak_password_app_detail.app_id = weak_password_app.app_id"],
"must_predicates":["weak_password_app_detail.pass_wd IS NOT NULL"],
"should_projection":["weak_password_app.name","weak_password_app.app_id"],
"confidence":0.9,"reasoning":"join app to its weak-password detail rows"}

Example 2:
Question: 最近30天弱口令应用数量趋势
Allowed tables: weak_password_app_detail
Plan: {"task":"trend","subject":"app","must_tables":["weak_password_app_detail"],
"must_predicates":["weak_password_app_detail.last_find_time >= DATE_SUB(NOW(), INTERVAL 30 DAY)"],
"groupby":["DATE(weak_password_app_detail.last_find_time)"],
"aggregates":["COUNT(DISTINCT weak_password_app_detail.app_id)"],
"timeframe_days":30,"confidence":0.85,"reasoning":"daily trend of distinct affected apps"}

Example 3:
Question: 病毒感染终端总数
Allowed tables: virus_details
Plan: {"task":"count","subject":"node","must_tables":["virus_details"],
"aggregates":["COUNT(*)"],"confidence":0.8,"reasoning":"single aggregate, no grouping"}`

// Build assembles the Planner user message: question, KB hint, schema
// subset, semantic candidates, the lexical task-type hint, strict
// allowed-tables/columns lists, and the few-shot examples. The rules are
// sent in systemPrompt, not in this message.
func Build(question string, built context.Built, semanticTables []string, hint lexical.TaskHint) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n\n", question)

	if hint != lexical.TaskHintUnknown {
		fmt.Fprintf(&b, "Suggested task (non-authoritative): %s\n\n", hint)
	}

	if built.KBSnippet != "" {
		fmt.Fprintf(&b, "Knowledge base notes:\n%s\n\n", built.KBSnippet)
	}

	b.WriteString("Allowed tables:\n")
	for _, t := range built.EffectiveSchema.TableNames() {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nAllowed columns:\n")
	for table, cols := range built.SelectedColumnsByTable {
		fmt.Fprintf(&b, "- %s: %s\n", table, strings.Join(cols, ", "))
	}

	if schemaJSON, err := json.Marshal(built.EffectiveSchema); err == nil {
		fmt.Fprintf(&b, "\nSchema subset:\n%s\n", schemaJSON)
	}

	if len(semanticTables) > 0 {
		fmt.Fprintf(&b, "\nSemantic retriever candidates: %s\n", strings.Join(semanticTables, ", "))
	}

	b.WriteString("\n")
	b.WriteString(fewShot)
	b.WriteString("\n\nRespond with ONLY the JSON Plan for the question above.")

	return b.String()
}

// RetryHint is appended to the user message on the single Planner retry
// triggered when the first response referenced a table outside
// allowed_tables.
func RetryHint(allowedTables []string) string {
	return fmt.Sprintf("\n\nCRITICAL: your previous answer referenced a table outside the allowed set. "+
		"use ONLY these tables: %s", strings.Join(allowedTables, ", "))
}
