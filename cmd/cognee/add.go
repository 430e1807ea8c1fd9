package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/topoteretes/cognee-go/engine/domain"
)

func newAddCmd() *cobra.Command {
	var text, source string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a document for ingestion into a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireFlag(cmd, "owner")
			if err != nil {
				return err
			}
			dataset, err := requireFlag(cmd, "dataset")
			if err != nil {
				return err
			}

			if text == "" && source == "" && len(args) > 0 {
				text = args[0]
			}
			if text == "" && source != "" {
				data, err := os.ReadFile(source)
				if err != nil {
					return err
				}
				text = string(data)
			}

			engine, cleanup, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			datasetID, err := engine.Add(cliContext(), domain.IngestRequest{
				Dataset: domain.DatasetRef{OwnerID: owner, DatasetID: dataset},
				Text:    text,
				Source:  source,
			})
			if err != nil {
				return err
			}
			cmd.Println(datasetID)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "document text to ingest")
	cmd.Flags().StringVar(&source, "source", "", "path to a file to read text from")
	return cmd
}
