package main

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"

	cognee "github.com/topoteretes/cognee-go"
	"github.com/topoteretes/cognee-go/engine/catalog"
	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/router"
	"github.com/topoteretes/cognee-go/engine/semantic"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/topoteretes/cognee-go/pkg/ollama"
)

// storeProvisioner provisions a Neo4j graph store and a Qdrant vector
// store per dataset — the same Provisioner shape cmd/cognee-server uses.
type storeProvisioner struct {
	neo4jDriver neo4j.DriverWithContext
	qdrantAddr  string
}

func (p *storeProvisioner) Provision(ctx context.Context, ownerID, datasetID string) (router.Handle, error) {
	vs, err := semantic.New(p.qdrantAddr)
	if err != nil {
		return router.Handle{}, fmt.Errorf("provision: qdrant: %w", err)
	}
	gs := graph.New(p.neo4jDriver)
	return router.Handle{Graph: gs, Vector: vs, Namespace: ownerID + "/" + datasetID}, nil
}

// buildEngine wires a cognee.Engine from the command's persistent flags.
// Returns a cleanup func the caller must defer.
func buildEngine(cmd *cobra.Command) (*cognee.Engine, func(), error) {
	ctx := cliContext()
	log := logger()

	dsn, _ := cmd.Flags().GetString("catalog-dsn")
	neo4jURL, _ := cmd.Flags().GetString("neo4j-url")
	neo4jUser, _ := cmd.Flags().GetString("neo4j-user")
	neo4jPass, _ := cmd.Flags().GetString("neo4j-pass")
	qdrantAddr, _ := cmd.Flags().GetString("qdrant-addr")
	ollamaURL, _ := cmd.Flags().GetString("ollama-url")
	embedModel, _ := cmd.Flags().GetString("embed-model")

	driver, err := neo4j.NewDriverWithContext(neo4jURL, neo4j.BasicAuth(neo4jUser, neo4jPass, ""))
	if err != nil {
		return nil, nil, fmt.Errorf("neo4j driver: %w", err)
	}

	cat, err := catalog.New(ctx, dsn, log)
	if err != nil {
		driver.Close(ctx)
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}

	embedder, err := ollama.NewEmbedClient(ollamaURL, embedModel, 768, 8192)
	if err != nil {
		cat.Close()
		driver.Close(ctx)
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}
	gateway := ollama.NewChatClient(ollamaURL)

	rtr := router.New(&storeProvisioner{neo4jDriver: driver, qdrantAddr: qdrantAddr})
	engine := cognee.New(cat, rtr, embedder, gateway, nil, fn.DefaultRetry, log)

	cleanup := func() {
		cat.Close()
		driver.Close(ctx)
	}
	return engine, cleanup, nil
}
