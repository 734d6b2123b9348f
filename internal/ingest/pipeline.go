// Package ingest runs one pass of the report ingestion pipeline:
// discover, then for each pending file extract, insert and record it.
package ingest

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/oasis-ingest/internal/manifest"
	"github.com/sells-group/oasis-ingest/internal/model"
	"github.com/sells-group/oasis-ingest/internal/resilience"
)

// Config holds the per-run settings of a Pipeline.
type Config struct {
	XMLDir       string // input directory
	Extension    string // file suffix, matched case-insensitively
	ResourceName string // logged as src
	DryRun       bool   // extract only; no inserts or manifest writes
}

// Ledger discovers pending files and records ingested ones.
type Ledger interface {
	Pending(dir, ext string) (*manifest.Discovery, error)
	Record(names ...string) error
}

// Extractor turns one report file into records.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) ([]model.Record, error)
}

// Inserter commits one document's records atomically.
type Inserter interface {
	InsertBatch(ctx context.Context, filename string, records []model.Record) (int64, error)
}

// Result summarizes a run.
type Result struct {
	RunID         string   `json:"run_id"`
	Discovered    int      `json:"discovered"`
	Inserted      int      `json:"inserted"`
	ExtractFailed int      `json:"extract_failed"`
	InsertFailed  int      `json:"insert_failed"`
	Rows          int64    `json:"rows"`
	Failed        []string `json:"failed,omitempty"`
}

// Pipeline composes the manifest, extractor and store.
type Pipeline struct {
	cfg     Config
	ledger  Ledger
	extract Extractor
	insert  Inserter
	log     *zap.Logger
}

// New creates a Pipeline. A nil log uses zap.L().
func New(cfg Config, ledger Ledger, x Extractor, ins Inserter, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.L()
	}
	return &Pipeline{cfg: cfg, ledger: ledger, extract: x, insert: ins, log: log}
}

// Run processes every pending file once, sequentially. Per-file failures are
// logged and leave the file unrecorded so the next run retries it. Only a
// discovery or manifest write failure, or cancellation, ends the run early.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.New().String()}
	log := p.log.With(
		zap.String("src", p.cfg.ResourceName),
		zap.String("run_id", res.RunID),
	)

	disc, err := p.ledger.Pending(p.cfg.XMLDir, p.cfg.Extension)
	if err != nil {
		return res, eris.Wrap(err, "ingest: discover")
	}
	res.Discovered = len(disc.Files)

	log.Info("discovered files",
		zap.String("action", "new_xml_files"),
		zap.Int("new_file_set_count", len(disc.Files)),
		zap.Int("all_file_set_count", disc.AllCount),
		zap.Int("parsed_file_set_count", disc.RecordedCount),
	)

	start := time.Now()
	for _, name := range disc.Files {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		fileLog := log.With(zap.String("file", name))

		records, err := p.extract.ExtractFile(ctx, filepath.Join(p.cfg.XMLDir, name))
		if err != nil {
			fileLog.Error("failed to parse file",
				zap.String("action", "parse_file"),
				zap.Error(err),
			)
			res.ExtractFailed++
			res.Failed = append(res.Failed, name)
			continue
		}

		if p.cfg.DryRun {
			fileLog.Info("parsed file (dry run)",
				zap.String("action", "parse_file"),
				zap.Int("records", len(records)),
			)
			continue
		}

		n, err := p.insert.InsertBatch(ctx, name, records)
		if err != nil {
			fileLog.Error("insert failed",
				zap.String("action", "insert"),
				zap.Int("attempted", len(records)),
				zap.String("error_type", resilience.ClassifyError(err)),
				zap.Error(err),
			)
			res.InsertFailed++
			res.Failed = append(res.Failed, name)
			continue
		}

		if err := p.ledger.Record(name); err != nil {
			return res, eris.Wrapf(err, "ingest: record %s in manifest", name)
		}

		fileLog.Info("inserted file",
			zap.String("action", "insert"),
			zap.Int64("succeeded", n),
		)
		res.Inserted++
		res.Rows += n
	}

	log.Info("ingest run complete",
		zap.String("action", "run"),
		zap.Int("discovered", res.Discovered),
		zap.Int("inserted", res.Inserted),
		zap.Int("extract_failed", res.ExtractFailed),
		zap.Int("insert_failed", res.InsertFailed),
		zap.Int64("rows", res.Rows),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
