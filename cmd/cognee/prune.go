package main

import (
	"github.com/spf13/cobra"

	"github.com/topoteretes/cognee-go/engine/domain"
)

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete a dataset's graph and vector state",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireFlag(cmd, "owner")
			if err != nil {
				return err
			}
			dataset, err := requireFlag(cmd, "dataset")
			if err != nil {
				return err
			}

			engine, cleanup, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := engine.Prune(cliContext(), domain.DatasetRef{OwnerID: owner, DatasetID: dataset}); err != nil {
				return err
			}
			cmd.Println("Pruned")
			return nil
		},
	}
	return cmd
}
