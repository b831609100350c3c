package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookworm = `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
NAME="Debian GNU/Linux"
VERSION_ID="12"
VERSION_CODENAME=bookworm
ID=debian
`

func checker(t *testing.T, hostname, osRelease string) *Checker {
	t.Helper()
	fs := afero.NewMemMapFs()
	if osRelease != "" {
		require.NoError(t, afero.WriteFile(fs, "/etc/os-release", []byte(osRelease), 0o644))
	}
	return &Checker{
		Fs: fs,
		HostInfo: func(context.Context) (*host.InfoStat, error) {
			return &host.InfoStat{Hostname: hostname, Platform: "debian", PlatformVersion: "12", KernelArch: "aarch64"}, nil
		},
	}
}

func TestCheck_SupportedPlatform(t *testing.T) {
	info, err := checker(t, "raspberrypi", bookworm).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bookworm", info.Codename)
	assert.Equal(t, "aarch64", info.Arch)
}

func TestCheck_WarnsOnMismatch(t *testing.T) {
	info, err := checker(t, "laptop", `VERSION_CODENAME="bullseye"`).Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, "bullseye", info.Codename)
	assert.Contains(t, err.Error(), "Raspberry Pi")
	assert.Contains(t, err.Error(), "bullseye")
}

func TestCheck_MissingFactsAreWarnings(t *testing.T) {
	c := &Checker{
		Fs:       afero.NewMemMapFs(),
		HostInfo: func(context.Context) (*host.InfoStat, error) { return nil, errors.New("boom") },
	}
	info, err := c.Check(context.Background())
	require.Error(t, err)
	assert.Empty(t, info.Hostname)
	assert.Contains(t, err.Error(), "host info")
	assert.Contains(t, err.Error(), "/etc/os-release")
}
