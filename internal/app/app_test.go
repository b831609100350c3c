package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/launcher"
	"github.com/five82/karaokepi/internal/state"
	"github.com/five82/karaokepi/internal/supervisor"
	"github.com/five82/karaokepi/internal/sysexec/sysexectest"
	"github.com/five82/karaokepi/internal/versiongate"
)

type stubRegistry struct {
	version string
	err     error
}

func (s stubRegistry) LatestVersion(context.Context) (string, error) {
	return s.version, s.err
}

func TestWriteStatus_Installed(t *testing.T) {
	cfg := config.Default()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cfg.AutostartFile, []byte("[Desktop Entry]\n"), 0o644))

	store := state.NewMemStore()
	require.NoError(t, store.Save(state.InstallState{
		InstallerVersion: "0.4.0",
		Channel:          "stable",
		UpdatedAt:        time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Set(state.UpdatePending))

	runner := (&sysexectest.Recorder{}).On(cfg.AppExecutable(), sysexectest.Response{Output: "pikaraoke 1.9.2\n"})
	gate := &versiongate.Gate{Runner: runner, Registry: stubRegistry{version: "1.10.0"}, Binary: cfg.AppExecutable()}

	var out bytes.Buffer
	require.NoError(t, writeStatus(context.Background(), &out, cfg, fs, store, gate))

	text := out.String()
	assert.Contains(t, text, "1.9.2")
	assert.Contains(t, text, "1.10.0")
	assert.Contains(t, text, "update pending:    true")
	assert.Contains(t, text, "0.4.0 (stable, 2026-03-01 09:30)")
	assert.Contains(t, text, cfg.AutostartFile)
	assert.Contains(t, text, "environment:       missing")
}

func TestWriteStatus_NothingInstalled(t *testing.T) {
	cfg := config.Default()
	runner := (&sysexectest.Recorder{}).On(cfg.AppExecutable(), sysexectest.Response{Err: errors.New("not found")})
	gate := &versiongate.Gate{Runner: runner, Registry: stubRegistry{err: errors.New("offline")}, Binary: cfg.AppExecutable()}

	var out bytes.Buffer
	require.NoError(t, writeStatus(context.Background(), &out, cfg, afero.NewMemMapFs(), state.NewMemStore(), gate))

	text := out.String()
	assert.Contains(t, text, "not installed")
	assert.Contains(t, text, "latest:            unknown")
	assert.Contains(t, text, "install record:    none")
	assert.Contains(t, text, "autostart:         missing")
}

func TestPrintLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pikaraoke_output.log")
	content := strings.Join([]string{
		launcher.SessionMarker + " 2026-01-01T10:00:00Z",
		"old run",
		launcher.SessionMarker + " 2026-01-02T10:00:00Z",
		"serving on :5555",
		"level=error boom",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Run("session", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printLog(&out, path, LogsOptions{Session: true}))
		assert.NotContains(t, out.String(), "old run")
		assert.Contains(t, out.String(), "serving on :5555")
	})

	t.Run("last lines", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printLog(&out, path, LogsOptions{Lines: 2}))
		assert.Equal(t, "serving on :5555\nlevel=error boom\n", out.String())
	})

	t.Run("missing file", func(t *testing.T) {
		var out bytes.Buffer
		missing := filepath.Join(t.TempDir(), "none.log")
		require.NoError(t, printLog(&out, missing, LogsOptions{}))
		assert.Equal(t, "no output in "+missing+"\n", out.String())
	})
}

func TestLogs_PlainUsesConfiguredLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")
	require.NoError(t, os.WriteFile(logPath, []byte("hello\n"), 0o644))
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output_log = \""+logPath+"\"\n"), 0o644))

	var out bytes.Buffer
	err := Logs(context.Background(), Options{ConfigPath: cfgPath, Out: &out}, LogsOptions{Plain: true})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.String())
}

type recordingSupervisor struct {
	calls *[]string
	res   supervisor.Result
	err   error
}

func (s recordingSupervisor) Run(context.Context) (supervisor.Result, error) {
	*s.calls = append(*s.calls, "launch")
	return s.res, s.err
}

type recordingGate struct {
	calls *[]string
}

func (g recordingGate) Check(ctx context.Context) (versiongate.Decision, error) {
	call := "check"
	if _, ok := ctx.Deadline(); !ok {
		call = "check without deadline"
	}
	*g.calls = append(*g.calls, call)
	return versiongate.Decision{}, nil
}

func TestLaunchThenCheck_ChecksOnlyAfterLaunch(t *testing.T) {
	var calls []string
	err := launchThenCheck(context.Background(),
		recordingSupervisor{calls: &calls, res: supervisor.Result{State: supervisor.Launched}},
		recordingGate{calls: &calls}, "pikaraoke")
	require.NoError(t, err)
	assert.Equal(t, []string{"launch", "check"}, calls)
}

func TestLaunchThenCheck_NoNetworkSkipsCheck(t *testing.T) {
	var calls []string
	err := launchThenCheck(context.Background(),
		recordingSupervisor{calls: &calls, res: supervisor.Result{State: supervisor.Failed}},
		recordingGate{calls: &calls}, "pikaraoke")
	require.ErrorIs(t, err, ErrLaunchAborted)
	assert.Equal(t, []string{"launch"}, calls)

	calls = nil
	err = launchThenCheck(context.Background(),
		recordingSupervisor{calls: &calls, err: errors.New("spawn failed")},
		recordingGate{calls: &calls}, "pikaraoke")
	require.EqualError(t, err, "spawn failed")
	assert.Equal(t, []string{"launch"}, calls)
}

func TestLogMode_Options(t *testing.T) {
	cfg := config.Default()

	tool := toolLog.options(cfg, "debug")
	assert.Equal(t, cfg.ToolLogPath(), tool.Path)
	assert.True(t, tool.Console)

	inst := installLog.options(cfg, "")
	assert.Equal(t, cfg.InstallLog, inst.Path)
	assert.False(t, inst.Console, "install output belongs to the console reporter")

	quiet := reportOnly.options(cfg, "")
	assert.Empty(t, quiet.Path)
	assert.False(t, quiet.Console, "uninstall output belongs to the console reporter")
	assert.True(t, quiet.Quiet)
}
