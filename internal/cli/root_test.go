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
	assert.Equal(t, "propsolve", cmd.Use)
	assert.Contains(t, cmd.Long, "finite lattice")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"analyze", "train", "test", "clear", "constraints", "validate", "tree", "solvers", "scenario"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
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
}

func TestAnalyzeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"analyze", "train", "test", "clear"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			dbFlag := sub.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			assert.Equal(t, DefaultDBPath, dbFlag.DefValue)

			jobsFlag := sub.Flags().Lookup("jobs")
			require.NotNil(t, jobsFlag)
			assert.Equal(t, "j", jobsFlag.Shorthand)

			assert.NotNil(t, sub.Flags().Lookup("solver"))
			assert.NotNil(t, sub.Flags().Lookup("constraints"))
		})
	}

	analyzeCmd, _, err := cmd.Find([]string{"analyze"})
	require.NoError(t, err)
	modeFlag := analyzeCmd.Flags().Lookup("mode")
	require.NotNil(t, modeFlag)
	assert.Equal(t, "annotate", modeFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--format", "xml", "solvers"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootVerboseLogsToStderr(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"-v", "constraints", pipelineDir(t)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "pipeline [constraint]: 1 constraint(s)")
	assert.Contains(t, errOut.String(), "Loaded 2 CUE file(s)")
}
