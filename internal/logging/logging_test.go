package logging

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToRotatingFile(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	path := filepath.Join(t.TempDir(), "nested", "karaokepi.log")
	_, err := Init(Options{Level: "debug", Path: path})
	require.NoError(t, err)

	log.Debug("hello from the test")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	_, err := Init(Options{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestInit_QuietDiscards(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	out, err := Init(Options{Quiet: true})
	require.NoError(t, err)
	n, err := out.Write([]byte("dropped\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, io.Discard, log.StandardLogger().Out)
}
