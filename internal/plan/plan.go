// Package plan implements the Planner (C4): a genkit flow that turns a
// natural-language question plus the Context Builder's schema/KB view into a
// typed Plan, retrying once on an out-of-scope table reference before
// falling back to the default/empty Plan.
package plan

import (
	"context"
	"fmt"
	"log"
	"strings"

	genkitcore "github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"

	"github.com/edr-t2sql/t2sql/internal/candidate"
	buildctx "github.com/edr-t2sql/t2sql/internal/context"
	"github.com/edr-t2sql/t2sql/internal/lexical"
	"github.com/edr-t2sql/t2sql/internal/llmclient"
	"github.com/edr-t2sql/t2sql/internal/planmodel"
)

// Request is the Planner flow's input.
type Request struct {
	Question       string
	Built          buildctx.Built
	SemanticTables []string
	TaskHint       lexical.TaskHint
}

// Response is the Planner flow's output: the cleaned Plan, and whether it
// is the fallback default (Fallback=true implies errs.ErrPlannerFallback
// should be reported by the caller).
type Response struct {
	Plan     *planmodel.Plan
	Fallback bool
}

// DefineFlow registers the Planner as a genkit flow under modelName. The
// actual completion goes through provider rather than genkit's own
// model-plugin resolution, since the provider already speaks the
// OpenAI-compatible wire format §6 requires regardless of which vendor
// plugin, if any, genkit.Init registered; genkit.Run still wraps the call
// for tracing, matching this codebase's DefineFlow-wrapping-Run shape.
func DefineFlow(g *genkit.Genkit, provider llmclient.Provider, modelName string) *genkitcore.Flow[*Request, *Response, struct{}] {
	return genkit.DefineFlow(
		g,
		"plannerFlow",
		func(ctx context.Context, req *Request) (*Response, error) {
			allowed := req.Built.EffectiveSchema.TableNames()

			userMsg := Build(req.Question, req.Built, req.SemanticTables, req.TaskHint)

			p, err := genkit.Run(ctx, "plannerCall", func() (*planmodel.Plan, error) {
				return generatePlan(ctx, provider, modelName, userMsg)
			})
			if err != nil {
				log.Printf("plan: first attempt failed: %v", err)
			}

			if p != nil {
				if offender, ok := firstDisallowedTable(p, allowed); ok {
					log.Printf("plan: retrying after out-of-scope table %q", offender)
					retryMsg := userMsg + RetryHint(allowed)
					retried, rerr := genkit.Run(ctx, "plannerRetryCall", func() (*planmodel.Plan, error) {
						return generatePlan(ctx, provider, modelName, retryMsg)
					})
					if rerr == nil && retried != nil {
						p = retried
					} else {
						p = nil
					}
				}
			}

			if p == nil {
				return &Response{Plan: planmodel.Default(), Fallback: true}, nil
			}

			cleaned := clean(p, allowed)
			return &Response{Plan: cleaned, Fallback: cleaned.IsEmpty()}, nil
		},
	)
}

func generatePlan(ctx context.Context, provider llmclient.Provider, modelName, userMsg string) (*planmodel.Plan, error) {
	raw, err := provider.Complete(ctx, modelName, systemPrompt, userMsg, 0.1)
	if err != nil {
		return nil, fmt.Errorf("planner generation failed: %w", err)
	}

	obj, ok := candidate.ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("planner generation failed: no JSON object in response")
	}

	p, err := planmodel.DecodePlan([]byte(obj))
	if err != nil {
		return nil, fmt.Errorf("planner generation failed: %w", err)
	}
	return p, nil
}

// firstDisallowedTable reports the first out-of-scope table reference the
// Plan makes, triggering the single retry: either a must/should table itself,
// or a "table." prefix found while scanning must_predicates/must_joins for
// unknown-table references, per the retry trigger in §4.4.
func firstDisallowedTable(p *planmodel.Plan, allowed []string) (string, bool) {
	for _, t := range p.AllTables() {
		if !containsFold(allowed, t) {
			return t, true
		}
	}
	for _, frag := range append(append([]string(nil), p.MustPredicates...), p.MustJoins...) {
		if offender, ok := firstUnknownReference(frag, allowed); ok {
			return offender, true
		}
	}
	return "", false
}

// firstUnknownReference scans fragment for "ident." prefixes and returns the
// first one not present in allowed. A run starting with a digit (the "1" in
// a numeric literal like 1.5) is not an identifier and is skipped.
func firstUnknownReference(fragment string, allowed []string) (string, bool) {
	for i := 0; i < len(fragment); i++ {
		if fragment[i] != '.' {
			continue
		}
		start := i
		for start > 0 && isIdentByte(fragment[start-1]) {
			start--
		}
		if start == i || (fragment[start] >= '0' && fragment[start] <= '9') {
			continue
		}
		ident := fragment[start:i]
		if !containsFold(allowed, ident) {
			return ident, true
		}
	}
	return "", false
}

// clean drops must_tables/should_tables not present in allowed_tables and
// strips predicates/joins referencing a table outside the allowed set,
// matching the "drop, never hallucinate-fix" behavior this codebase uses
// when an LLM response partially violates its constraints.
func clean(p *planmodel.Plan, allowed []string) *planmodel.Plan {
	p.MustTables = filterAllowed(p.MustTables, allowed)
	p.ShouldTables = filterAllowed(p.ShouldTables, allowed)
	p.MustPredicates = filterReferencing(p.MustPredicates, allowed)
	p.MustJoins = filterReferencing(p.MustJoins, allowed)
	p.ShouldPredicates = filterReferencing(p.ShouldPredicates, allowed)
	return p
}

func filterAllowed(tables, allowed []string) []string {
	var out []string
	for _, t := range tables {
		if containsFold(allowed, t) {
			out = append(out, t)
		}
	}
	return out
}

// filterReferencing drops any fragment whose "table." prefix scan finds an
// identifier outside allowed.
func filterReferencing(fragments, allowed []string) []string {
	var out []string
	for _, frag := range fragments {
		if referencesOnlyAllowed(frag, allowed) {
			out = append(out, frag)
		}
	}
	return out
}

func referencesOnlyAllowed(fragment string, allowed []string) bool {
	_, ok := firstUnknownReference(fragment, allowed)
	return !ok
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func containsFold(list []string, s string) bool {
	for _, l := range list {
		if strings.EqualFold(l, s) {
			return true
		}
	}
	return false
}
