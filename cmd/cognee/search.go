package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/topoteretes/cognee-go/engine/domain"
	"github.com/topoteretes/cognee-go/engine/retrieval"
)

func newSearchCmd() *cobra.Command {
	var query, queryType string
	var topK int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query a dataset's knowledge graph and vector memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireFlag(cmd, "owner")
			if err != nil {
				return err
			}
			dataset, err := requireFlag(cmd, "dataset")
			if err != nil {
				return err
			}
			if query == "" && len(args) > 0 {
				query = args[0]
			}

			searchType := retrieval.SearchType(queryType)
			switch searchType {
			case "":
				searchType = retrieval.NaturalLanguage
			case retrieval.GraphCompletion, retrieval.Insights, retrieval.Code, retrieval.TripletCompletion, retrieval.NaturalLanguage:
			default:
				return fmt.Errorf("unknown --query-type %q", queryType)
			}

			opts := retrieval.DefaultOptions()
			if topK > 0 {
				opts.TopK = topK
			}

			engine, cleanup, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := engine.Search(cliContext(), domain.SearchRequest{
				Dataset: domain.DatasetRef{OwnerID: owner, DatasetID: dataset},
				Query:   query,
			}, searchType, opts)
			if err != nil {
				return err
			}
			cmd.Println(result.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "query text")
	cmd.Flags().StringVar(&queryType, "query-type", "", "GRAPH_COMPLETION | INSIGHTS | CODE | TRIPLET_COMPLETION | NATURAL_LANGUAGE (default NATURAL_LANGUAGE)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "override result count")
	return cmd
}
