// Package cognify implements C7: the default extraction pipeline that
// turns raw document text into DocumentChunk/Entity/EntityType/Summary
// DataPoints and hands them to engine/materialize.
package cognify

import (
	"context"
	"log/slog"
	"time"

	"github.com/topoteretes/cognee-go/engine/datapoint"
	"github.com/topoteretes/cognee-go/engine/embed"
	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/llm"
	"github.com/topoteretes/cognee-go/engine/materialize"
	"github.com/topoteretes/cognee-go/engine/pipeline"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/topoteretes/cognee-go/pkg/resilience"
)

// Document is the pipeline's root input: one unit of raw text to cognify.
type Document struct {
	ID       string
	Text     string
	Strategy ChunkStrategy
}

// ChunkStrategy selects which of the three chunkers a Document is split
// with. The zero value is StrategyNaive.
type ChunkStrategy int

const (
	StrategyNaive ChunkStrategy = iota
	StrategyRow
	StrategyCode
)

// Config wires a cognify pipeline's external collaborators.
type Config struct {
	Embedder     embed.Engine
	LLM          llm.Gateway
	Materializer *materialize.Materializer
	Resolver     *OntologyResolver
	Retry        fn.RetryOpts
	Telemetry    pipeline.Telemetry
	RunLogger    pipeline.RunLogger
	DatasetID    string
	Logger       *slog.Logger
	// Breaker guards extract_graph_from_data's LLM calls; a nil Breaker
	// is replaced with a fresh one using resilience.DefaultBreakerOpts.
	Breaker *resilience.Breaker
}

// extractOutput threads chunks, extracted entities, and relationship
// edges from the extraction task into the summarization task.
type extractOutput struct {
	Chunks   []*datapoint.DocumentChunk
	Entities []datapoint.DataPoint
	Edges    []graph.Edge
}

type summarizeOutput struct {
	Prior     extractOutput
	Summaries []datapoint.DataPoint
}

// DefaultPipeline builds the cognify_pipeline DAG: chunk ->
// extract_graph_from_data -> summarization -> add_data_points.
func DefaultPipeline(cfg Config) *pipeline.Pipeline {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	retryOpts := cfg.Retry
	if retryOpts.MaxAttempts == 0 {
		retryOpts = fn.DefaultRetry
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = resilience.NewBreaker(resilience.DefaultBreakerOpts)
	}

	chunkTask := pipeline.Task{
		Name: "chunk",
		Run: func(ctx context.Context, inputs []any) (any, error) {
			doc := inputs[0].(Document)
			switch doc.Strategy {
			case StrategyRow:
				return ChunkByRow(cfg.Embedder, doc.ID, doc.Text), nil
			case StrategyCode:
				return ChunkCode(cfg.Embedder, doc.ID, doc.Text), nil
			default:
				return ChunkNaive(cfg.Embedder, doc.ID, doc.Text), nil
			}
		},
	}

	extractTask := pipeline.Task{
		Name:      "extract_graph_from_data",
		DependsOn: []string{"chunk"},
		Run: func(ctx context.Context, inputs []any) (any, error) {
			chunks := inputs[0].([]*datapoint.DocumentChunk)
			out := extractOutput{Chunks: chunks}
			now := time.Now().UnixMilli()

			for _, c := range chunks {
				result, err := ExtractGraphFromData(ctx, cfg.LLM, c, retryOpts, breaker)
				if err != nil {
					log.Warn("cognify: dropping chunk after extraction failure", "chunk_id", c.ID, "error", err)
					continue
				}
				entities, edges := BuildGraph(result, c, cfg.Resolver, now)
				out.Entities = append(out.Entities, entities...)
				out.Edges = append(out.Edges, edges...)
			}
			return out, nil
		},
	}

	summarizeTask := pipeline.Task{
		Name:      "summarization",
		DependsOn: []string{"extract_graph_from_data"},
		Run: func(ctx context.Context, inputs []any) (any, error) {
			prior := inputs[0].(extractOutput)
			out := summarizeOutput{Prior: prior}
			now := time.Now().UnixMilli()

			for _, c := range prior.Chunks {
				summary, err := Summarize(ctx, cfg.LLM, c, retryOpts, now)
				if err != nil {
					log.Warn("cognify: dropping summary after failure", "chunk_id", c.ID, "error", err)
					continue
				}
				out.Summaries = append(out.Summaries, summary)
			}
			return out, nil
		},
	}

	addTask := pipeline.Task{
		Name:      "add_data_points",
		DependsOn: []string{"summarization"},
		Run: func(ctx context.Context, inputs []any) (any, error) {
			out := inputs[0].(summarizeOutput)

			var roots []datapoint.DataPoint
			for _, c := range out.Prior.Chunks {
				roots = append(roots, c)
			}
			roots = append(roots, out.Prior.Entities...)
			roots = append(roots, out.Summaries...)

			if err := cfg.Materializer.AddDataPoints(ctx, roots, out.Prior.Edges...); err != nil {
				return nil, err
			}
			return roots, nil
		},
	}

	p := pipeline.New("cognify_pipeline", []pipeline.Task{chunkTask, extractTask, summarizeTask, addTask}, cfg.Telemetry, log)
	p.DatasetID = cfg.DatasetID
	p.RunLogger = cfg.RunLogger
	return p
}
