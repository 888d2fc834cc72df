package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsAreRegistered(t *testing.T) {
	for _, name := range []string{"api", "worker", "export"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}

func TestExportFlags(t *testing.T) {
	for _, flag := range []string{"entity", "search", "mode", "ids", "out"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
