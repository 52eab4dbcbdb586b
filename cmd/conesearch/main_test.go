package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpecCommand(t *testing.T) {
	var out = new(bytes.Buffer)
	var cmd = newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"spec"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), `"schema_name"`)
	require.Contains(t, out.String(), `"radius"`)
	require.Contains(t, out.String(), "Cone Search Settings")
}

func TestRunRequiresSettingsFile(t *testing.T) {
	var cmd = newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"run"})
	require.Error(t, cmd.Execute())
}

func TestInvalidLogLevel(t *testing.T) {
	var cmd = newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"spec", "--log-level", "shouty"})
	require.Error(t, cmd.Execute())
}
