// Command ingest runs the cognify_pipeline worker: it connects to NATS,
// Neo4j, and Qdrant, and drains cognify.TriggerSubject, turning each
// triggered document into graph nodes, edges, and vector embeddings.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/nats-io/nats.go"
	"github.com/topoteretes/cognee-go/engine/cognify"
	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/materialize"
	"github.com/topoteretes/cognee-go/engine/semantic"
	"github.com/topoteretes/cognee-go/engine/storage"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/topoteretes/cognee-go/pkg/metrics"
	"github.com/topoteretes/cognee-go/pkg/ollama"
)

var met = metrics.New()

var mTriggersTotal = met.Counter("cognee_ingest_triggers_total", "Total cognify triggers consumed")

const vectorDims = 768 // nomic-embed-text

func main() {
	var (
		natsURL     = flag.String("nats", nats.DefaultURL, "NATS server URL")
		ollamaURL   = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		embedModel  = flag.String("embed-model", "nomic-embed-text", "Ollama embedding model")
		neo4jURL    = flag.String("neo4j", "neo4j://localhost:7687", "Neo4j bolt URL")
		neo4jUser   = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass   = flag.String("neo4j-pass", "cognee", "Neo4j password")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		localDir    = flag.String("local-dir", "/tmp/cognee-data", "base directory for file:// and bare-path triggers")
		dedupePath  = flag.String("dedupe-db", "/tmp/cognee-ingest-dedupe.db", "bbolt file tracking processed doc ids, empty disables")
		metricsPort = flag.Int("metrics-port", 9091, "metrics server port")
	)
	flag.Parse()

	log := slog.Default()
	met.ServeAsync(*metricsPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
	if err != nil {
		log.Error("neo4j connect failed", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Error("neo4j verify failed", "error", err)
		os.Exit(1)
	}
	log.Info("connected to neo4j")

	vs, err := semantic.New(*qdrantAddr)
	if err != nil {
		log.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer vs.Close()
	log.Info("connected to qdrant")

	embedder, err := ollama.NewEmbedClient(*ollamaURL, *embedModel, vectorDims, 8192)
	if err != nil {
		log.Error("ollama embedder init failed", "error", err)
		os.Exit(1)
	}
	gateway := ollama.NewChatClient(*ollamaURL)

	gs := graph.New(driver)
	m := materialize.New(gs, vs, embedder)
	m.Metrics = met

	files := storage.NewRouter(*localDir, storage.S3Storage{})

	pipelineFor := func(ctx context.Context, ownerID, datasetID string) (cognify.Config, error) {
		mTriggersTotal.Inc()
		return cognify.Config{
			Embedder:     embedder,
			LLM:          gateway,
			Materializer: m,
			Retry:        fn.DefaultRetry,
			Logger:       log,
		}, nil
	}

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	var dedupe cognify.Dedupe
	if *dedupePath != "" {
		bd, err := cognify.OpenBoltDedupe(*dedupePath)
		if err != nil {
			log.Error("dedupe store open failed", "error", err)
			os.Exit(1)
		}
		defer bd.Close()
		dedupe = bd
	}

	sub, err := cognify.StartConsumer(nc, files, pipelineFor, dedupe, log)
	if err != nil {
		log.Error("start consumer failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	log.Info("cognify worker listening", "subject", cognify.TriggerSubject)

	<-ctx.Done()
	log.Info("shutting down")
}
