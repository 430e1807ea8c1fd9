package main

import (
	"github.com/spf13/cobra"

	"github.com/topoteretes/cognee-go/engine/cognify"
)

func newCognifyCmd() *cobra.Command {
	var datasets []string
	var code bool

	cmd := &cobra.Command{
		Use:   "cognify",
		Short: "Run the extraction pipeline over a dataset's queued documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireFlag(cmd, "owner")
			if err != nil {
				return err
			}
			if len(datasets) == 0 {
				dataset, err := requireFlag(cmd, "dataset")
				if err != nil {
					return err
				}
				datasets = []string{dataset}
			}

			engine, cleanup, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			strategy := cognify.StrategyNaive
			if code {
				strategy = cognify.StrategyCode
			}
			if err := engine.Cognify(cliContext(), owner, datasets, strategy); err != nil {
				return err
			}
			if code {
				cmd.Println("Indexed")
			} else {
				cmd.Println("Ingested")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&datasets, "datasets", nil, "dataset ids to cognify (defaults to --dataset)")
	cmd.Flags().BoolVar(&code, "code", false, "use the code-aware chunking strategy (codify)")
	return cmd
}
