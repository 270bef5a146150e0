// Package generate implements the Generator (C6): a genkit flow producing
// 1-3 candidate SQL strings from the Safety Contract, folding an empty
// candidates array and a JSON parse failure into the same fallback signal.
package generate

import (
	"context"
	"fmt"
	"log"

	genkitcore "github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"

	"github.com/edr-t2sql/t2sql/internal/candidate"
	"github.com/edr-t2sql/t2sql/internal/contract"
	"github.com/edr-t2sql/t2sql/internal/errs"
	"github.com/edr-t2sql/t2sql/internal/llmclient"
)

// Request is the Generator flow's input.
type Request struct {
	Question    string
	Contract    contract.Contract
	Task        string
	NCandidates int
}

// Response is the Generator flow's output.
type Response struct {
	Candidates []candidate.Candidate
}

// DefineFlow registers the Generator as a genkit flow under modelName. As in
// internal/plan, the completion itself goes through provider rather than
// genkit's own model-plugin resolution; genkit.Run wraps the call for
// tracing only.
func DefineFlow(g *genkit.Genkit, provider llmclient.Provider, modelName string) *genkitcore.Flow[*Request, *Response, struct{}] {
	return genkit.DefineFlow(
		g,
		"generatorFlow",
		func(ctx context.Context, req *Request) (*Response, error) {
			userMsg := Build(req.Question, req.Contract, req.Task, req.NCandidates)

			cands, err := genkit.Run(ctx, "generatorCall", func() ([]candidate.Candidate, error) {
				raw, err := provider.Complete(ctx, modelName, systemPrompt, userMsg, 0.2)
				if err != nil {
					return nil, err
				}
				return candidate.DecodeCandidates(raw)
			})
			if err != nil {
				log.Printf("generate: model call failed: %v", err)
				return nil, fmt.Errorf("%w: %v", errs.ErrGeneratorEmpty, err)
			}
			if len(cands) == 0 {
				return nil, errs.ErrGeneratorEmpty
			}

			return &Response{Candidates: cands}, nil
		},
	)
}
