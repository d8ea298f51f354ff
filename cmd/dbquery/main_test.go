package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbquery/internal/cli"
)

func TestHelpCommand(t *testing.T) {
	chdir(t, t.TempDir())
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	for _, expected := range []string{"render", "exec", "version", "--dsn", "--deny-unfiltered"} {
		assert.Contains(t, buf.String(), expected)
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dbquery "+cli.Version+"\n", buf.String())
}
