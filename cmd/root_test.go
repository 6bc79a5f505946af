package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"serve", "migrate", "dbcheck", "jobs", "facts", "import"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "enrichment-api", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestJobsCommand_HasSubcommands(t *testing.T) {
	cmds := jobsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"list", "show", "stats"} {
		assert.True(t, names[name], "expected jobs subcommand %q not found", name)
	}
}

func TestFactsCommand_HasSubcommands(t *testing.T) {
	cmds := factsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"list", "export"} {
		assert.True(t, names[name], "expected facts subcommand %q not found", name)
	}
}

func TestJobsListCommand_Flags(t *testing.T) {
	flag := jobsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)

	require.NotNil(t, jobsListCmd.Flags().Lookup("status"))
	require.NotNil(t, jobsListCmd.Flags().Lookup("domain"))
}

func TestFactsExportCommand_Flags(t *testing.T) {
	flag := factsExportCmd.Flags().Lookup("out")
	require.NotNil(t, flag)
	assert.Equal(t, "facts.xlsx", flag.DefValue)
}

func TestImportCommand_RequiredFlags(t *testing.T) {
	flag := importCmd.Flags().Lookup("csv")
	require.NotNil(t, flag, "import command should have --csv flag")
}
