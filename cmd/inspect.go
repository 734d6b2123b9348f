package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/oasis-ingest/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the records extracted from one report",
	Long:  "Parses a single report file and prints its records as indented JSON without touching the database or manifest.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := newExtractor(cfg.Ingest)
		if err != nil {
			return err
		}

		records, err := x.ExtractFile(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "inspect")
		}

		return writeRecords(os.Stdout, records)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func writeRecords(w io.Writer, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
