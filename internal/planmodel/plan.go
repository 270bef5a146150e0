// Package planmodel defines the typed Plan the Planner (C4) produces:
// task/subject enums plus MUST/SHOULD/MAY constraint sets.
package planmodel

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Plan is the Planner's structured output, tagged for both genkit's
// structured-output generation (jsonschema) and post-decode validation
// (validate).
type Plan struct {
	Task    string   `json:"task" jsonschema:"description=one of list/count/trend/rank/detail/filter/distribution" validate:"oneof=list count trend rank detail filter distribution"`
	Subject string   `json:"subject" jsonschema:"description=one of app/node/account/user/endpoint/service/process/risk" validate:"oneof=app node account user endpoint service process risk"`
	Risk    []string `json:"risk,omitempty" jsonschema:"description=free-form risk tags"`

	MustTables     []string `json:"must_tables,omitempty"`
	MustJoins      []string `json:"must_joins,omitempty"`
	MustPredicates []string `json:"must_predicates,omitempty"`

	ShouldTables     []string `json:"should_tables,omitempty"`
	ShouldPredicates []string `json:"should_predicates,omitempty"`
	ShouldProjection []string `json:"should_projection,omitempty"`

	MayPredicates []string `json:"may_predicates,omitempty"`
	MayProjection []string `json:"may_projection,omitempty"`

	TimeframeDays *int `json:"timeframe_days,omitempty"`

	GroupBy    []string `json:"groupby,omitempty"`
	Aggregates []string `json:"aggregates,omitempty"`

	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1" validate:"gte=0,lte=1"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// legacyPlan captures the older `required_*` field names some prompts or
// fixtures may still emit. Per this codebase's decision, any legacy-only
// field is folded into the corresponding MUST set at decode time and never
// consulted again: MUST/SHOULD/MAY is the only vocabulary downstream code
// uses.
type legacyPlan struct {
	RequiredTables     []string `json:"required_tables,omitempty"`
	RequiredJoins      []string `json:"required_joins,omitempty"`
	RequiredPredicates []string `json:"required_predicates,omitempty"`
}

// Default returns the empty/fallback Plan used when the Planner fails
// (bad JSON or schema violation): task=list, subject=app, empty constraints.
func Default() *Plan {
	return &Plan{
		Task:       "list",
		Subject:    "app",
		Confidence: 0,
	}
}

// DecodePlan parses raw JSON into a Plan, applying the legacy-field
// compatibility fold-in and rejecting unknown task/subject enum values.
func DecodePlan(raw []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	var legacy legacyPlan
	_ = json.Unmarshal(raw, &legacy) // legacy fields are optional; ignore decode errors here

	if len(p.MustTables) == 0 && len(legacy.RequiredTables) > 0 {
		p.MustTables = legacy.RequiredTables
	}
	if len(p.MustJoins) == 0 && len(legacy.RequiredJoins) > 0 {
		p.MustJoins = legacy.RequiredJoins
	}
	if len(p.MustPredicates) == 0 && len(legacy.RequiredPredicates) > 0 {
		p.MustPredicates = legacy.RequiredPredicates
	}

	if err := validate.Struct(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AllTables returns the union of must_tables and should_tables.
func (p *Plan) AllTables() []string {
	seen := make(map[string]struct{}, len(p.MustTables)+len(p.ShouldTables))
	var out []string
	for _, t := range append(append([]string(nil), p.MustTables...), p.ShouldTables...) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IsEmpty reports whether this is the zero-value fallback Plan (no
// constraints at all), the signal upstream uses to fall back to the
// traditional single-shot generator.
func (p *Plan) IsEmpty() bool {
	return len(p.MustTables) == 0 && len(p.ShouldTables) == 0 &&
		len(p.MustPredicates) == 0 && len(p.MustJoins) == 0
}
