package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/oasis-ingest/internal/manifest"
)

// statusEntry is one line of the status table.
type statusEntry struct {
	XMLDir     string
	Files      int
	Recorded   int
	Pending    int
	Rows       int64
	NextToLoad string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingestion progress",
	Long:  "Counts report files in the input directory, files recorded in the manifest, pending files and rows in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		disc, err := manifest.New(cfg.Ingest.ManifestPath).Pending(cfg.Ingest.XMLDir, cfg.Ingest.Extension)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rows, err := st.CountRows(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		e := statusEntry{
			XMLDir:   cfg.Ingest.XMLDir,
			Files:    disc.AllCount,
			Recorded: disc.RecordedCount,
			Pending:  len(disc.Files),
			Rows:     rows,
		}
		if len(disc.Files) > 0 {
			e.NextToLoad = disc.Files[0]
		}

		formatStatus(os.Stdout, e)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// formatStatus writes a tabular representation of e to out.
func formatStatus(out io.Writer, e statusEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "XML_DIR\tFILES\tRECORDED\tPENDING\tROWS\tNEXT")
	_, _ = fmt.Fprintln(w, "-------\t-----\t--------\t-------\t----\t----")

	next := "-"
	if e.NextToLoad != "" {
		next = truncate(e.NextToLoad, 48)
	}
	_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
		e.XMLDir,
		e.Files,
		e.Recorded,
		e.Pending,
		e.Rows,
		next,
	)
	_ = w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
