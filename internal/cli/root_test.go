package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "marketcraft", cmd.Use)
	assert.Contains(t, cmd.Long, "vaults")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"player", "add"}, {"player", "list"},
		{"give"}, {"inventory"},
		{"shop", "create"}, {"shop", "remove"}, {"shop", "list"}, {"shop", "show"},
		{"vault", "deposit"}, {"vault", "withdraw"}, {"vault", "show"}, {"vault", "list"},
		{"buy"},
		{"sign", "link"}, {"sign", "unlink"}, {"sign", "use"}, {"sign", "break"}, {"sign", "list"},
		{"admin", "remove-shop"}, {"admin", "remove-sign"},
		{"test"}, {"version"},
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

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("driver"))
}

func TestBuyCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	buyCmd, _, err := cmd.Find([]string{"buy"})
	require.NoError(t, err)

	timesFlag := buyCmd.Flags().Lookup("times")
	require.NotNil(t, timesFlag)
	assert.Equal(t, "n", timesFlag.Shorthand)
	assert.Equal(t, "1", timesFlag.DefValue)
}

func TestSignLinkCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	linkCmd, _, err := cmd.Find([]string{"sign", "link"})
	require.NoError(t, err)

	textFlag := linkCmd.Flags().Lookup("text")
	require.NotNil(t, textFlag)
	assert.Equal(t, "Marketcraft", textFlag.DefValue)

	waxedFlag := linkCmd.Flags().Lookup("waxed")
	require.NotNil(t, waxedFlag)
	assert.Equal(t, "false", waxedFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "version"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVersionCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "marketcraft "+Version+"\n", buf.String())
}
