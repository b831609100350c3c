package platform

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/afero"
)

const (
	expectedHostname = "raspberrypi"
	expectedCodename = "bookworm"
	osReleasePath    = "/etc/os-release"
)

// Info is what the check observed.
type Info struct {
	Hostname string
	Platform string
	Version  string
	Codename string
	Arch     string
}

// Checker gathers host facts.
type Checker struct {
	Fs afero.Fs
	// HostInfo defaults to gopsutil's host.InfoWithContext.
	HostInfo func(ctx context.Context) (*host.InfoStat, error)
}

// Detect gathers what is known about the host. Missing facts stay empty.
func (c *Checker) Detect(ctx context.Context) (Info, error) {
	var info Info
	var errs error

	hostInfo := c.HostInfo
	if hostInfo == nil {
		hostInfo = host.InfoWithContext
	}
	stat, err := hostInfo(ctx)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("host info: %w", err))
	} else if stat != nil {
		info.Hostname = stat.Hostname
		info.Platform = stat.Platform
		info.Version = stat.PlatformVersion
		info.Arch = stat.KernelArch
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, osReleasePath)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("read %s: %w", osReleasePath, err))
	} else {
		info.Codename = osReleaseValue(data, "VERSION_CODENAME")
	}
	return info, errs
}

// Check returns a warning for every mismatch with the supported platform, or nil.
func (c *Checker) Check(ctx context.Context) (Info, error) {
	info, detectErr := c.Detect(ctx)

	var warnings error
	if detectErr != nil {
		warnings = multierror.Append(warnings, detectErr)
	}
	if !strings.Contains(strings.ToLower(info.Hostname), expectedHostname) {
		warnings = multierror.Append(warnings, fmt.Errorf("hostname %q does not look like a Raspberry Pi", info.Hostname))
	}
	if info.Codename != expectedCodename {
		warnings = multierror.Append(warnings, fmt.Errorf("OS codename %q is not %s", info.Codename, expectedCodename))
	}
	return info, warnings
}

func osReleaseValue(data []byte, key string) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || k != key {
			continue
		}
		return strings.Trim(v, `"'`)
	}
	return ""
}
