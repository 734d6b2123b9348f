package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/oasis-ingest/internal/config"
	"github.com/sells-group/oasis-ingest/internal/ingest"
	"github.com/sells-group/oasis-ingest/internal/manifest"
	"github.com/sells-group/oasis-ingest/internal/oasis"
	"github.com/sells-group/oasis-ingest/internal/timeconv"
)

var ingestDryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load new report files into the database",
	Long:  "Discovers report files not yet in the manifest, inserts each one in its own transaction and records it once committed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		x, err := newExtractor(cfg.Ingest)
		if err != nil {
			return err
		}

		pcfg := ingest.Config{
			XMLDir:       cfg.Ingest.XMLDir,
			Extension:    cfg.Ingest.Extension,
			ResourceName: cfg.Ingest.ResourceName,
			DryRun:       ingestDryRun,
		}

		var ins ingest.Inserter
		if !ingestDryRun {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			ins = st
		}

		p := ingest.New(pcfg, manifest.New(cfg.Ingest.ManifestPath), x, ins, zap.L())
		res, err := p.Run(ctx)
		if res != nil {
			printResult(os.Stdout, res, ingestDryRun)
		}
		if err != nil {
			return eris.Wrap(err, "ingest")
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "parse files without inserting or recording them")
	rootCmd.AddCommand(ingestCmd)
}

// newExtractor builds an extractor for the configured namespace and zone.
func newExtractor(c config.IngestConfig) (*oasis.Extractor, error) {
	loc, err := timeconv.LoadLocation(c.Timezone)
	if err != nil {
		return nil, eris.Wrap(err, "load timezone")
	}
	log := zap.L().With(zap.String("src", c.ResourceName))
	return oasis.NewExtractor(c.Namespace, timeconv.NewNormalizer(loc, log), log), nil
}

func printResult(w io.Writer, res *ingest.Result, dryRun bool) {
	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	_, _ = fmt.Fprintf(w, "run %s%s: %d discovered, %d inserted, %d failed, %d rows\n",
		res.RunID, mode, res.Discovered, res.Inserted, res.ExtractFailed+res.InsertFailed, res.Rows)
}
