package versiongate

import (
	"context"
	"errors"
	"testing"

	goversion "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/karaokepi/internal/state"
	"github.com/five82/karaokepi/internal/sysexec/sysexectest"
)

type fakeRegistry struct {
	version string
	err     error
}

func (f fakeRegistry) LatestVersion(context.Context) (string, error) {
	return f.version, f.err
}

func v(s string) *goversion.Version {
	return goversion.Must(goversion.NewVersion(s))
}

func TestNeedsUpdate(t *testing.T) {
	tests := []struct {
		name      string
		installed *goversion.Version
		latest    *goversion.Version
		want      bool
	}{
		{"same minor newer patch", v("1.2.0"), v("1.2.9"), false},
		{"same minor older patch", v("1.2.7"), v("1.2.1"), false},
		{"identical", v("1.2.3"), v("1.2.3"), false},
		{"newer minor", v("1.2.5"), v("1.3.0"), true},
		{"newer major", v("1.9.9"), v("2.0.0"), true},
		{"older major newer minor", v("2.0.0"), v("1.9.0"), false},
		{"unknown latest", v("1.2.0"), nil, false},
		{"unknown installed", nil, v("0.1.0"), true},
		{"sentinel installed", Minimum, v("0.0.5"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsUpdate(tt.installed, tt.latest))
		})
	}
}

func TestParse(t *testing.T) {
	for _, raw := range []string{"1.2.3", "v1.2.3", "pikaraoke 1.2.3", " v1.2.3\n"} {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "1.2.3", got.String(), raw)
	}
	_, err := Parse("not a version")
	assert.Error(t, err)
}

func TestInstalledVersion_FallsBackToMinimum(t *testing.T) {
	runner := (&sysexectest.Recorder{}).On("/venv/bin/pikaraoke --version", sysexectest.Response{Err: errors.New("no such file")})
	g := &Gate{Runner: runner, Binary: "/venv/bin/pikaraoke"}
	assert.True(t, g.InstalledVersion(context.Background()).Equal(Minimum))

	runner = (&sysexectest.Recorder{}).On("/venv/bin/pikaraoke --version", sysexectest.Response{Output: "garbage"})
	g.Runner = runner
	assert.True(t, g.InstalledVersion(context.Background()).Equal(Minimum))

	runner = (&sysexectest.Recorder{}).On("/venv/bin/pikaraoke --version", sysexectest.Response{Output: "v1.4.2"})
	g.Runner = runner
	assert.Equal(t, "1.4.2", g.InstalledVersion(context.Background()).String())
}

func TestLatestVersion_UnknownOnFailure(t *testing.T) {
	g := &Gate{Registry: fakeRegistry{err: errors.New("offline")}}
	assert.Nil(t, g.LatestVersion(context.Background()))

	g.Registry = fakeRegistry{version: "??"}
	assert.Nil(t, g.LatestVersion(context.Background()))

	g.Registry = nil
	assert.Nil(t, g.LatestVersion(context.Background()))
}

func TestCheck_SetsFlagOnlyForNewerMinor(t *testing.T) {
	tests := []struct {
		name      string
		installed string
		latest    fakeRegistry
		wantFlag  bool
	}{
		{"patch only", "1.2.0", fakeRegistry{version: "1.2.7"}, false},
		{"minor bump", "1.2.4", fakeRegistry{version: "1.3.0"}, true},
		{"registry offline", "1.2.4", fakeRegistry{err: errors.New("timeout")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := state.NewMemStore()
			runner := (&sysexectest.Recorder{}).On("pikaraoke --version", sysexectest.Response{Output: tt.installed})
			g := &Gate{Runner: runner, Registry: tt.latest, Store: store, Binary: "pikaraoke"}

			d, err := g.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, d.Update)

			flag, err := store.Get(state.UpdatePending)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, flag)
		})
	}
}

func TestCheck_NeverFlagsWhenInstalledUnknownAndLatestUnknown(t *testing.T) {
	store := state.NewMemStore()
	runner := (&sysexectest.Recorder{}).On("pikaraoke", sysexectest.Response{Err: errors.New("missing")})
	g := &Gate{Runner: runner, Registry: fakeRegistry{err: errors.New("dns")}, Store: store, Binary: "pikaraoke"}

	d, err := g.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, d.Update)
	assert.Nil(t, d.Latest)
	flag, _ := store.Get(state.UpdatePending)
	assert.False(t, flag)
}

func TestNeedsLegacyCleanup(t *testing.T) {
	tests := []struct {
		name     string
		recorded state.InstallState
		channel  string
		want     bool
	}{
		{"no record", state.InstallState{}, "stable", false},
		{"old installer", state.InstallState{InstallerVersion: "0.2.9"}, "stable", true},
		{"at threshold", state.InstallState{InstallerVersion: "0.3.0"}, "stable", false},
		{"newer installer", state.InstallState{InstallerVersion: "0.4.0"}, "stable", false},
		{"dev channel configured", state.InstallState{InstallerVersion: "0.1.0"}, "dev", false},
		{"dev channel recorded", state.InstallState{InstallerVersion: "0.1.0", Channel: "unreleased"}, "stable", false},
		{"garbage recorded version", state.InstallState{InstallerVersion: "main-abc"}, "stable", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsLegacyCleanup(tt.recorded, "0.3.0", tt.channel))
		})
	}
}
