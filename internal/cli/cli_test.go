package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Tree(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "nursery", root.Use)

	for _, path := range [][]string{
		{"start"},
		{"run"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"worker", "run"},
		{"healthcheck"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.NotEqual(t, root, cmd, path)
	}

	_, _, err := root.Find([]string{"module", "create"})
	assert.Error(t, err)
}

func TestMigrateDownFlags(t *testing.T) {
	cmd, _, err := NewRootCommand().Find([]string{"migrate", "down"})
	require.NoError(t, err)

	steps, err := cmd.Flags().GetInt("steps")
	require.NoError(t, err)
	assert.Equal(t, 1, steps)

	all, err := cmd.Flags().GetBool("all")
	require.NoError(t, err)
	assert.False(t, all)
}

func TestSeedFlagsDefaults(t *testing.T) {
	cmd, _, err := NewRootCommand().Find([]string{"seed"})
	require.NoError(t, err)

	email, err := cmd.Flags().GetString("email")
	require.NoError(t, err)
	assert.Equal(t, "admin@nursery.local", email)
}
