package uninstall

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/console"
	"github.com/five82/karaokepi/internal/safefs"
	"github.com/five82/karaokepi/internal/state"
)

const home = "/home/pi"

func testConfig() config.Config {
	cfg := config.Default()
	cfg.VenvDir = home + "/.venv-pikaraoke"
	cfg.OutputLog = home + "/pikaraoke_output.log"
	cfg.InstallLog = home + "/pikaraoke_install.log"
	cfg.UpdateFlag = home + "/.pikaraoke_update_pending"
	cfg.StateFile = home + "/.config/karaokepi/state.toml"
	cfg.StartScript = home + "/pikaraoke_start.sh"
	cfg.AliasesFile = home + "/.pikaraoke_aliases"
	cfg.DesktopShortcut = home + "/Desktop/Start PiKaraoke.desktop"
	cfg.AutostartFile = home + "/.config/autostart/pikaraoke.desktop"
	cfg.SystemAutostartFile = "/etc/xdg/autostart/pikaraoke.desktop"
	cfg.LogDir = home + "/.local/share/karaokepi"
	cfg.ShellProfiles = []string{home + "/.bashrc"}
	cfg.LegacyPaths = []string{home + "/.venv", home + "/pikaraoke", home + "/pikaraoke_launcher.sh"}
	return cfg
}

type fakeDriver struct {
	calls int
	err   error
}

func (f *fakeDriver) Remove(context.Context) error { f.calls++; return f.err }

type fixture struct {
	fs     afero.Fs
	store  *state.FileStore
	driver *fakeDriver
	u      *Uninstaller
}

func newFixture(t *testing.T, files ...string) *fixture {
	t.Helper()
	cfg := testConfig()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
	}
	store := state.NewFileStore(fs, cfg.StateFile, map[state.Marker]string{state.UpdatePending: cfg.UpdateFlag})
	driver := &fakeDriver{}
	return &fixture{
		fs:     fs,
		store:  store,
		driver: driver,
		u: &Uninstaller{
			Config:   cfg,
			Fs:       fs,
			Remover:  safefs.NewRemover(fs, cfg.SongsMarker),
			Store:    store,
			Driver:   driver,
			Reporter: console.New(&bytes.Buffer{}),
		},
	}
}

var installedFiles = []string{
	home + "/.venv-pikaraoke/bin/pikaraoke",
	home + "/pikaraoke_start.sh",
	home + "/.pikaraoke_aliases",
	home + "/Desktop/Start PiKaraoke.desktop",
	home + "/pikaraoke_output.log",
	home + "/pikaraoke_install.log",
	home + "/pikaraoke_install-2026-01-01T00-00-00.000.log.gz",
	home + "/.local/share/karaokepi/karaokepi.log",
	home + "/.local/share/karaokepi/karaokepi-2026-01-01T00-00-00.000.log.gz",
	home + "/.config/autostart/pikaraoke.desktop",
	"/etc/xdg/autostart/pikaraoke.desktop",
	home + "/.venv/bin/pikaraoke",
	home + "/pikaraoke_launcher.sh",
}

func TestRun_RemovesEverything(t *testing.T) {
	f := newFixture(t, installedFiles...)
	require.NoError(t, afero.WriteFile(f.fs, home+"/.bashrc",
		[]byte("export A=1\n[ -f \"$HOME/.pikaraoke_aliases\" ] && . \"$HOME/.pikaraoke_aliases\"\n"), 0o644))
	require.NoError(t, f.store.Set(state.UpdatePending))
	require.NoError(t, f.store.Save(state.InstallState{InstallerVersion: "0.4.0"}))

	report, err := f.u.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Nil(t, report.Warnings)
	assert.Zero(t, report.Count(safefs.Failed))
	assert.Zero(t, report.Count(safefs.Protected))

	for _, p := range installedFiles {
		exists, _ := afero.Exists(f.fs, p)
		assert.False(t, exists, p)
	}
	bashrc, err := afero.ReadFile(f.fs, home+"/.bashrc")
	require.NoError(t, err)
	assert.Equal(t, "export A=1\n", string(bashrc))

	pending, _ := f.store.Get(state.UpdatePending)
	assert.False(t, pending)
	recorded, _ := f.store.Load()
	assert.True(t, recorded.IsZero())

	assert.Zero(t, f.driver.calls, "driver is preserved without --deskpi")
}

func TestRun_ProtectsSongLibraryAtAnyDepth(t *testing.T) {
	for _, deskpi := range []bool{false, true} {
		songs := []string{
			home + "/pikaraoke/pikaraoke-songs/a.mp4",
			home + "/pikaraoke/data/deep/nested/PiKaraoke-Songs/b.cdg",
			home + "/.venv-pikaraoke/share/pikaraoke-songs/c.mp3",
		}
		f := newFixture(t, append(append([]string{}, installedFiles...), songs...)...)

		report, err := f.u.Run(context.Background(), Options{DeskPi: deskpi})
		require.NoError(t, err)

		for _, s := range songs {
			exists, _ := afero.Exists(f.fs, s)
			assert.True(t, exists, "deskpi=%v: %s", deskpi, s)
		}
		assert.Equal(t, 2, report.Count(safefs.Protected), "venv and legacy folder are kept whole")

		exists, _ := afero.Exists(f.fs, home+"/pikaraoke_start.sh")
		assert.False(t, exists)
		if deskpi {
			assert.Equal(t, 1, f.driver.calls)
		} else {
			assert.Zero(t, f.driver.calls)
		}
	}
}

func TestRun_FailuresAreReportedNotFatal(t *testing.T) {
	f := newFixture(t, installedFiles...)
	f.driver.err = errors.New("systemctl: permission denied")
	// A read-only view makes every removal fail.
	ro := afero.NewReadOnlyFs(f.fs)
	f.u.Fs = ro
	f.u.Remover = safefs.NewRemover(ro, "pikaraoke-songs")

	report, err := f.u.Run(context.Background(), Options{DeskPi: true})
	require.NoError(t, err)
	assert.Equal(t, len(installedFiles), report.Count(safefs.Failed))
	require.Error(t, report.Warnings)
	assert.Contains(t, report.Warnings.Error(), "permission denied")
	assert.Equal(t, 1, f.driver.calls)
}

func TestRun_NothingInstalledIsClean(t *testing.T) {
	f := newFixture(t)
	report, err := f.u.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Nil(t, report.Warnings)
	assert.Zero(t, report.Count(safefs.Removed))
}

func TestRun_KeepsUnrelatedPythonEnv(t *testing.T) {
	f := newFixture(t, home+"/.venv/pyvenv.cfg", home+"/.venv/lib/myproject/data.db", home+"/pikaraoke_launcher.sh")

	_, err := f.u.Run(context.Background(), Options{})
	require.NoError(t, err)

	exists, _ := afero.Exists(f.fs, home+"/.venv/lib/myproject/data.db")
	assert.True(t, exists)
	exists, _ = afero.Exists(f.fs, home+"/pikaraoke_launcher.sh")
	assert.False(t, exists)
}

func TestRotatedBackups(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{
		home + "/pikaraoke_install.log",
		home + "/pikaraoke_install-2026-01-01T00-00-00.000.log",
		home + "/pikaraoke_install-2026-02-01T00-00-00.000.log.gz",
		home + "/pikaraoke_output.log",
	} {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}
	assert.ElementsMatch(t, []string{
		home + "/pikaraoke_install-2026-01-01T00-00-00.000.log",
		home + "/pikaraoke_install-2026-02-01T00-00-00.000.log.gz",
	}, rotatedBackups(fs, home+"/pikaraoke_install.log"))
}
