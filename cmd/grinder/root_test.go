package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitExtensions(t *testing.T) {
	assert.Equal(t, []string{".c", ".h"}, splitExtensions(".c,.h"))
	assert.Equal(t, []string{".c", ".h"}, splitExtensions("c, h"))
	assert.Equal(t, []string{".go"}, splitExtensions(" .go "))
	// an empty value falls back to the defaults
	assert.Equal(t, []string{".c", ".h"}, splitExtensions(""))
	assert.Equal(t, []string{".c", ".h"}, splitExtensions(" , "))
}

func TestRootCmdFlagDefaults(t *testing.T) {
	flags := rootCmd.Flags()

	database, err := flags.GetString("database")
	require.NoError(t, err)
	assert.Equal(t, "db.sqlite", database)

	build, err := flags.GetBool("build")
	require.NoError(t, err)
	assert.False(t, build)

	extensions, err := flags.GetString("extensions")
	require.NoError(t, err)
	assert.Equal(t, ".c,.h", extensions)

	for _, name := range []string{"from", "to", "verbose", "quiet"} {
		assert.NotNil(t, flags.Lookup(name), "flag %s must be registered", name)
	}
}
