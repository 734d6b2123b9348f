package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"ingest", "migrate", "status", "inspect", "config"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "oasis-ingest", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_Flags(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("dry-run")
	require.NotNil(t, flag, "ingest command should have --dry-run flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestInspectCommand_RequiresFile(t *testing.T) {
	assert.Error(t, inspectCmd.Args(inspectCmd, nil))
	assert.NoError(t, inspectCmd.Args(inspectCmd, []string{"a.xml"}))
}
