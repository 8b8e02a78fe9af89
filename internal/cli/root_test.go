package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "postbot", cmd.Use)
	assert.Contains(t, cmd.Long, "lock file")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"post"},
		{"schedule"},
		{"preview"},
		{"status"},
		{"unlock"},
		{"ledger"},
		{"ledger", "check"},
		{"ledger", "import"},
		{"ledger", "history"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		path   []string
		flag   string
		defVal string
	}{
		{[]string{"post"}, "dry-run", "false"},
		{[]string{"schedule"}, "dry-run", "false"},
		{[]string{"preview"}, "count", "3"},
		{[]string{"preview"}, "seed", "0"},
		{[]string{"unlock"}, "force", "false"},
		{[]string{"ledger", "history"}, "limit", "10"},
	}

	cmd := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			subCmd, _, err := cmd.Find(tt.path)
			require.NoError(t, err)
			f := subCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.defVal, f.DefValue)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t, "one")
	_, err := h.run("--format", "yaml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
