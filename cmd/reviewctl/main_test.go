package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{{"migrate"}, {"seed", "templates"}, {"seed", "demo"}, {"nudge"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, nudgeCmd.Flags().Lookup("watch"))
}
