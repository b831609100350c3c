package sysexec

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_RunTeesOutput(t *testing.T) {
	var stdout, logBuf bytes.Buffer
	e := &Exec{Stdout: &stdout, Log: &logBuf}

	err := e.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hello; echo oops >&2"}})
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "hello")
	assert.Contains(t, stdout.String(), "oops")
	assert.Equal(t, stdout.String(), logBuf.String())
}

func TestExec_RunWrapsFailure(t *testing.T) {
	e := &Exec{}
	err := e.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sh:")
}

func TestExec_OutputTrimsAndUsesEnv(t *testing.T) {
	e := &Exec{}
	out, err := e.Output(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo \"  $KARAOKEPI_TEST  \""},
		Env:  []string{"KARAOKEPI_TEST=v1.2.3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", out)
}

func TestExec_OutputIncludesStderrOnFailure(t *testing.T) {
	e := &Exec{}
	_, err := e.Output(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo broken >&2; exit 1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "pip", Args: []string{"install", "--upgrade", "pikaraoke"}}
	assert.Equal(t, "pip install --upgrade pikaraoke", c.String())
}
