// Command t2sql reads one natural-language question and writes one JSONL
// record with the SQL the pipeline produced for it.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/edr-t2sql/t2sql/internal/config"
	"github.com/edr-t2sql/t2sql/internal/generate"
	"github.com/edr-t2sql/t2sql/internal/limits"
	"github.com/edr-t2sql/t2sql/internal/llmclient"
	"github.com/edr-t2sql/t2sql/internal/observability"
	"github.com/edr-t2sql/t2sql/internal/pipeline"
	"github.com/edr-t2sql/t2sql/internal/plan"
	"github.com/edr-t2sql/t2sql/internal/registry"
	"github.com/edr-t2sql/t2sql/internal/retrieval"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	question := flag.String("question", "", "the question to answer; reads one line from stdin if omitted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	q := *question
	if q == "" {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			log.Fatalf("[main] no question provided on stdin or via -question")
		}
		q = scanner.Text()
	}

	reg, err := registry.New(cfg.SchemaPath, cfg.CatalogPath)
	if err != nil {
		log.Fatalf("[main] registry: %v", err)
	}
	if cfg.ReloadInterval > 0 {
		reg.StartReload(time.Duration(cfg.ReloadInterval) * time.Second)
		defer reg.Stop()
	}

	ctx := context.Background()
	genkitApp := genkit.Init(ctx)

	provider := llmclient.NewOpenAICompatibleProvider(cfg.LLM.BaseURL, cfg.LLM.ApiKey)

	hub := observability.NewHub()
	go hub.Run()

	p := &pipeline.Pipeline{
		Registry:      reg,
		Limiter:       limits.NewContextLimiter(nil),
		Retriever:     retrieval.NoopRetriever{},
		SemanticIndex: cfg.SemanticIndex,
		NCandidates:   cfg.NCandidates,
		MaxLimit:      cfg.MaxLimit,
		Debug:         cfg.Debug,
		PlannerFlow:   plan.DefineFlow(genkitApp, provider, cfg.LLM.PlannerModel),
		GeneratorFlow: generate.DefineFlow(genkitApp, provider, cfg.LLM.GeneratorModel),
		Hub:           hub,
	}

	record, err := p.Run(ctx, q)
	if err != nil {
		log.Printf("[main] pipeline returned a fallback record: %v", err)
	}

	out, err := json.Marshal(record)
	if err != nil {
		log.Fatalf("[main] marshal output record: %v", err)
	}
	fmt.Println(string(out))
}
