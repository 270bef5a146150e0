// Package pipeline orchestrates one question through every stage, C1
// through C10, and assembles the final output record.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	buildctx "github.com/edr-t2sql/t2sql/internal/context"
	"github.com/edr-t2sql/t2sql/internal/contract"
	"github.com/edr-t2sql/t2sql/internal/errs"
	"github.com/edr-t2sql/t2sql/internal/generate"
	"github.com/edr-t2sql/t2sql/internal/guard"
	"github.com/edr-t2sql/t2sql/internal/lexical"
	"github.com/edr-t2sql/t2sql/internal/limits"
	"github.com/edr-t2sql/t2sql/internal/observability"
	"github.com/edr-t2sql/t2sql/internal/plan"
	"github.com/edr-t2sql/t2sql/internal/planmodel"
	"github.com/edr-t2sql/t2sql/internal/registry"
	"github.com/edr-t2sql/t2sql/internal/retrieval"
	"github.com/edr-t2sql/t2sql/internal/selector"
	"github.com/edr-t2sql/t2sql/internal/validate"

	genkitcore "github.com/firebase/genkit/go/core"
)

const maxRetrievedTables = 12

// Record is the final JSONL output per question, per the output contract.
type Record struct {
	Question             string          `json:"question"`
	SQL                  string          `json:"sql"`
	Method               string          `json:"method"`
	Repaired             bool            `json:"repaired,omitempty"`
	Plan                 *planmodel.Plan `json:"plan,omitempty"`
	AdditionalCandidate  []string        `json:"additional_candidate,omitempty"`
}

// Pipeline wires every stage's collaborators together for one long-running
// process: the registry's schema/KB snapshot, the context limiter, the
// semantic retriever, the Planner/Generator genkit flows, and the
// observability hub.
type Pipeline struct {
	Registry      *registry.Registry
	Limiter       *limits.ContextLimiter
	Retriever     retrieval.SemanticRetriever
	SemanticIndex string
	NCandidates   int
	MaxLimit      int
	Debug         bool

	PlannerFlow   *genkitcore.Flow[*plan.Request, *plan.Response, struct{}]
	GeneratorFlow *genkitcore.Flow[*generate.Request, *generate.Response, struct{}]

	Hub *observability.Hub
}

// Run executes C1 through C10 for one question and returns the output
// record. method is "plan_generate_validate" on the happy path and
// "fallback" if the Planner, Generator, validation, or Guard stage forced
// the simpler path; Repaired/Plan are populated accordingly.
func (p *Pipeline) Run(ctx context.Context, question string) (*Record, error) {
	requestID := uuid.New().String()
	emit := func(stage string, data interface{}) {
		if p.Hub != nil {
			p.Hub.Emit(p.Debug, requestID, stage, data)
		}
	}

	s := p.Registry.Schema()
	catalog := p.Registry.Catalog()

	tokens := lexical.Tokenize(question)
	hint := lexical.ClassifyTask(question)
	lexicalScored := lexical.AutoSelectTables(s, tokens)

	var lexicalTables []string
	for _, t := range lexicalScored {
		lexicalTables = append(lexicalTables, t.Name)
	}

	var semanticCandidates []retrieval.Candidate
	if p.Retriever != nil {
		sc, err := p.Retriever.Retrieve(ctx, question, p.SemanticIndex)
		if err != nil {
			log.Printf("[retrieval] semantic retriever failed, continuing lexical-only: %v", err)
		} else {
			semanticCandidates = sc
		}
	}
	mergedTables := retrieval.Merge(lexicalTables, semanticCandidates, maxRetrievedTables)
	emit("retrieve", mergedTables)

	built := buildctx.Build(s, catalog, mergedTables, tokens, p.Limiter)
	emit("context", built.EffectiveSchema.TableNames())

	var semanticTableNames []string
	for _, c := range semanticCandidates {
		semanticTableNames = append(semanticTableNames, c.Table)
	}

	planResp, err := p.PlannerFlow.Run(ctx, &plan.Request{
		Question:       question,
		Built:          built,
		SemanticTables: semanticTableNames,
		TaskHint:       hint,
	})
	if err != nil {
		log.Printf("[planner] flow error: %v", err)
		return p.fallback(question, errs.ErrPlannerFallback)
	}
	emit("plan", planResp.Plan)

	if planResp.Fallback {
		return p.fallback(question, errs.ErrPlannerFallback)
	}

	c := contract.Build(planResp.Plan, built.EffectiveSchema, built.SelectedColumnsByTable)
	emit("contract", c)

	genResp, err := p.GeneratorFlow.Run(ctx, &generate.Request{
		Question:    question,
		Contract:    c,
		Task:        planResp.Plan.Task,
		NCandidates: p.NCandidates,
	})
	if err != nil {
		log.Printf("[generate] flow error: %v", err)
		return p.fallback(question, errs.ErrGeneratorEmpty)
	}
	emit("generate", len(genResp.Candidates))

	results, err := validate.ValidateAll(ctx, genResp.Candidates, c)
	if err != nil {
		log.Printf("[validate] fan-out error: %v", err)
		return p.fallback(question, errs.ErrAllCandidatesRejected)
	}
	emit("validate", results)

	sel, err := selector.Select(results)
	if err != nil {
		log.Printf("[select] no candidate passed: %v", err)
		return p.fallback(question, err)
	}
	emit("select", sel.Candidate.Label)

	keepOrderBy := planResp.Plan.Task == "trend"
	finalSQL, err := guard.Rewrite(sel.Candidate.SQL, c, keepOrderBy, p.MaxLimit)
	if err != nil {
		log.Printf("[guard] rejected candidate: %v", err)
		return p.fallback(question, errs.ErrGuardRejected)
	}
	emit("guard", finalSQL)

	var additional []string
	for _, rej := range sel.Rejected {
		additional = append(additional, rej.SQL)
	}

	return &Record{
		Question:             question,
		SQL:                  finalSQL,
		Method:               "plan_generate_validate",
		Repaired:             sel.Candidate.Repaired,
		Plan:                 planResp.Plan,
		AdditionalCandidate:  additional,
	}, nil
}

// fallback produces the record for a question that a stage sent down the
// simpler path: method "fallback" with an empty SQL, returned together with
// an error that wraps cause so the caller can errors.Is against it.
func (p *Pipeline) fallback(question string, cause error) (*Record, error) {
	log.Printf("[pipeline] falling back for question %q: %v", question, cause)
	return &Record{
		Question: question,
		SQL:      "",
		Method:   "fallback",
	}, fmt.Errorf("pipeline: fallback triggered: %w", cause)
}
