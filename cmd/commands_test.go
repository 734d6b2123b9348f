package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/oasis-ingest/internal/config"
	"github.com/sells-group/oasis-ingest/internal/manifest"
	"github.com/sells-group/oasis-ingest/internal/model"
	"github.com/sells-group/oasis-ingest/internal/oasis"
)

const fixture = "../internal/oasis/testdata/atl_apnode.xml"

// setupConfig points the global cfg at a fresh workspace holding one report.
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	xmlDir := filepath.Join(dir, "xml")
	require.NoError(t, os.MkdirAll(xmlDir, 0o755))

	data, err := os.ReadFile(fixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(xmlDir, "20230101.xml"), data, 0o644))

	cfg = &config.Config{
		Ingest: config.IngestConfig{
			XMLDir:       xmlDir,
			Extension:    ".xml",
			ManifestPath: filepath.Join(dir, "db", "inserted.txt"),
			ResourceName: "data-oasis-atl-apnode-all",
			Namespace:    oasis.DefaultNamespace,
		},
		Store: config.StoreConfig{
			DatabasePath: filepath.Join(dir, "db", "oasis.db"),
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
	return dir
}

func TestInitStore_CreatesDatabase(t *testing.T) {
	setupConfig(t)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, statErr := os.Stat(cfg.Store.DatabasePath)
	assert.NoError(t, statErr)
}

func TestIngestCommand_InsertsAndRecords(t *testing.T) {
	setupConfig(t)
	ingestDryRun = false

	ingestCmd.SetContext(context.Background())
	require.NoError(t, ingestCmd.RunE(ingestCmd, nil))

	recorded, err := manifest.New(cfg.Ingest.ManifestPath).Recorded()
	require.NoError(t, err)
	assert.Contains(t, recorded, "20230101.xml")

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	n, err := st.CountRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestIngestCommand_DryRunLeavesNoTrace(t *testing.T) {
	setupConfig(t)
	ingestDryRun = true
	t.Cleanup(func() { ingestDryRun = false })

	ingestCmd.SetContext(context.Background())
	require.NoError(t, ingestCmd.RunE(ingestCmd, nil))

	_, err := os.Stat(cfg.Ingest.ManifestPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.Store.DatabasePath)
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateCommand(t *testing.T) {
	setupConfig(t)

	migrateCmd.SetContext(context.Background())
	require.NoError(t, migrateCmd.RunE(migrateCmd, nil))

	_, err := os.Stat(cfg.Store.DatabasePath)
	assert.NoError(t, err)
}

func TestFormatStatus(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, statusEntry{
		XMLDir:     "xml",
		Files:      3,
		Recorded:   1,
		Pending:    2,
		Rows:       1234,
		NextToLoad: "20230102.xml",
	})

	output := buf.String()
	assert.Contains(t, output, "PENDING")
	assert.Contains(t, output, "1234")
	assert.Contains(t, output, "20230102.xml")
}

func TestFormatStatus_NothingPending(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, statusEntry{XMLDir: "xml"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "-"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestWriteRecords(t *testing.T) {
	setupConfig(t)
	x, err := newExtractor(cfg.Ingest)
	require.NoError(t, err)

	records, err := x.ExtractFile(context.Background(), fixture)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, records))
	assert.Contains(t, buf.String(), `"apnode_name": "AFPR_1_TOT_GEN-APND"`)
	assert.Contains(t, buf.String(), `"max_cb_mw": null`)
}

func TestWriteRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, []model.Record(nil)))
	assert.Equal(t, "[]\n", buf.String())
}

func TestNewExtractor_BadTimezone(t *testing.T) {
	_, err := newExtractor(config.IngestConfig{Timezone: "Nowhere/Special"})
	assert.Error(t, err)
}

func TestWriteConfig(t *testing.T) {
	setupConfig(t)

	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, cfg))

	var got config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, cfg.Ingest.ManifestPath, got.Ingest.ManifestPath)
	assert.Equal(t, cfg.Store.DatabasePath, got.Store.DatabasePath)
	assert.Contains(t, buf.String(), "xml_dir:")
}

func TestInitStore_LogsOpenFailure(t *testing.T) {
	dir := setupConfig(t)

	// A regular file where the database directory should be.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Store.DatabasePath = filepath.Join(blocker, "oasis.db")

	core, logs := observer.New(zapcore.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	_, err := initStore(context.Background())
	require.Error(t, err)

	entries := logs.FilterMessage("failed to open database").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "initdb", fields["action"])
	assert.Equal(t, "data-oasis-atl-apnode-all", fields["src"])
	assert.Equal(t, cfg.Store.DatabasePath, fields["db_path"])
}
