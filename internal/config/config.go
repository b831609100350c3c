package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures every path and tunable karaokepi needs. All paths are absolute
// after Load.
type Config struct {
	Package     string
	Channel     string
	RegistryURL string

	VenvDir    string
	OutputLog  string
	InstallLog string
	LogDir     string

	UpdateFlag string
	StateFile  string

	StartScript         string
	AliasesFile         string
	DesktopShortcut     string
	AutostartFile       string
	SystemAutostartFile string
	ShellProfiles       []string

	SongsMarker     string
	LegacyThreshold string
	LegacyPaths     []string
	SystemPackages  []string

	Launch LaunchConfig
	Notify NotifyConfig
	Driver DriverConfig
}

// LaunchConfig tunes the connectivity-gated launcher.
type LaunchConfig struct {
	ProbeAddress  string
	ProbeTimeout  time.Duration
	CheckInterval time.Duration
	InitialWait   time.Duration
	ExtendedWait  time.Duration
}

// NotifyConfig selects how user-facing notifications are shown.
type NotifyConfig struct {
	Backend string // auto, zenity, console, log
	Title   string
}

// DriverConfig describes the optional DeskPi Lite hardware driver.
type DriverConfig struct {
	Repo    string
	Dir     string
	Service string
	Files   []string
}

const (
	defaultConfigPath = "~/.config/karaokepi/config.toml"

	defaultPackage     = "pikaraoke"
	defaultChannel     = "stable"
	defaultRegistryURL = "https://pypi.org/pypi/pikaraoke/json"

	defaultVenvDir    = "~/.venv-pikaraoke"
	defaultOutputLog  = "~/pikaraoke_output.log"
	defaultInstallLog = "~/pikaraoke_install.log"
	defaultLogDir     = "~/.local/share/karaokepi"

	defaultUpdateFlag = "~/.pikaraoke_update_pending"
	defaultStateFile  = "~/.config/karaokepi/state.toml"

	defaultStartScript         = "~/pikaraoke_start.sh"
	defaultAliasesFile         = "~/.pikaraoke_aliases"
	defaultDesktopShortcut     = "~/Desktop/Start PiKaraoke.desktop"
	defaultAutostartFile       = "~/.config/autostart/pikaraoke.desktop"
	defaultSystemAutostartFile = "/etc/xdg/autostart/pikaraoke.desktop"

	defaultSongsMarker     = "pikaraoke-songs"
	defaultLegacyThreshold = "0.3.0"

	defaultProbeAddress  = "8.8.8.8:53"
	defaultProbeTimeout  = 3 * time.Second
	defaultCheckInterval = 5 * time.Second
	defaultInitialWait   = 10 * time.Second
	defaultExtendedWait  = 30 * time.Second

	defaultNotifyBackend = "auto"
	defaultNotifyTitle   = "PiKaraoke"

	defaultDriverRepo    = "https://github.com/DeskPi-Team/deskpi_v1.git"
	defaultDriverDir     = "~/deskpi_v1"
	defaultDriverService = "deskpi"
)

var (
	defaultShellProfiles  = []string{"~/.bashrc", "~/.profile"}
	defaultSystemPackages = []string{"ffmpeg", "chromium-browser", "chromium-chromedriver", "git", "python3-venv"}
	defaultLegacyPaths    = []string{
		"~/.venv",
		"~/pikaraoke",
		"~/pikaraoke_start_script.sh",
		"~/pikaraoke_launcher.sh",
		"~/pikaraoke_start.py",
	}
	defaultDriverFiles = []string{
		"/etc/systemd/system/deskpi.service",
		"/usr/lib/deskpi*",
		"/etc/deskpi.conf",
	}
)

type rawConfig struct {
	Package         string   `toml:"package"`
	Channel         string   `toml:"channel"`
	RegistryURL     string   `toml:"registry_url"`
	VenvDir         string   `toml:"venv_dir"`
	OutputLog       string   `toml:"output_log"`
	InstallLog      string   `toml:"install_log"`
	LogDir          string   `toml:"log_dir"`
	UpdateFlag      string   `toml:"update_flag"`
	StateFile       string   `toml:"state_file"`
	StartScript     string   `toml:"start_script"`
	AliasesFile     string   `toml:"aliases_file"`
	DesktopShortcut string   `toml:"desktop_shortcut"`
	AutostartFile   string   `toml:"autostart_file"`
	SystemAutostart string   `toml:"system_autostart_file"`
	ShellProfiles   []string `toml:"shell_profiles"`
	SongsMarker     string   `toml:"songs_marker"`
	LegacyThreshold string   `toml:"legacy_threshold"`
	LegacyPaths     []string `toml:"legacy_paths"`
	SystemPackages  []string `toml:"system_packages"`

	Launch struct {
		ProbeAddress  string `toml:"probe_address"`
		ProbeTimeout  int    `toml:"probe_timeout_seconds"`
		CheckInterval int    `toml:"check_interval_seconds"`
		InitialWait   int    `toml:"initial_wait_seconds"`
		ExtendedWait  int    `toml:"extended_wait_seconds"`
	} `toml:"launch"`

	Notify struct {
		Backend string `toml:"backend"`
		Title   string `toml:"title"`
	} `toml:"notify"`

	Driver struct {
		Repo    string   `toml:"repo"`
		Dir     string   `toml:"dir"`
		Service string   `toml:"service"`
		Files   []string `toml:"files"`
	} `toml:"driver"`
}

// Load locates and parses the karaokepi config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	return build(raw), nil
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return build(rawConfig{})
}

func build(raw rawConfig) Config {
	cfg := Config{
		Package:     orDefault(raw.Package, defaultPackage),
		Channel:     strings.ToLower(orDefault(raw.Channel, defaultChannel)),
		RegistryURL: orDefault(raw.RegistryURL, defaultRegistryURL),

		VenvDir:    mustExpand(orDefault(raw.VenvDir, defaultVenvDir)),
		OutputLog:  mustExpand(orDefault(raw.OutputLog, defaultOutputLog)),
		InstallLog: mustExpand(orDefault(raw.InstallLog, defaultInstallLog)),
		LogDir:     mustExpand(orDefault(raw.LogDir, defaultLogDir)),

		UpdateFlag: mustExpand(orDefault(raw.UpdateFlag, defaultUpdateFlag)),
		StateFile:  mustExpand(orDefault(raw.StateFile, defaultStateFile)),

		StartScript:         mustExpand(orDefault(raw.StartScript, defaultStartScript)),
		AliasesFile:         mustExpand(orDefault(raw.AliasesFile, defaultAliasesFile)),
		DesktopShortcut:     mustExpand(orDefault(raw.DesktopShortcut, defaultDesktopShortcut)),
		AutostartFile:       mustExpand(orDefault(raw.AutostartFile, defaultAutostartFile)),
		SystemAutostartFile: mustExpand(orDefault(raw.SystemAutostart, defaultSystemAutostartFile)),
		ShellProfiles:       expandAll(orDefaultList(raw.ShellProfiles, defaultShellProfiles)),

		SongsMarker:     strings.ToLower(orDefault(raw.SongsMarker, defaultSongsMarker)),
		LegacyThreshold: orDefault(raw.LegacyThreshold, defaultLegacyThreshold),
		LegacyPaths:     expandAll(orDefaultList(raw.LegacyPaths, defaultLegacyPaths)),
		SystemPackages:  orDefaultList(raw.SystemPackages, defaultSystemPackages),

		Launch: LaunchConfig{
			ProbeAddress:  orDefault(raw.Launch.ProbeAddress, defaultProbeAddress),
			ProbeTimeout:  seconds(raw.Launch.ProbeTimeout, defaultProbeTimeout),
			CheckInterval: seconds(raw.Launch.CheckInterval, defaultCheckInterval),
			InitialWait:   seconds(raw.Launch.InitialWait, defaultInitialWait),
			ExtendedWait:  seconds(raw.Launch.ExtendedWait, defaultExtendedWait),
		},
		Notify: NotifyConfig{
			Backend: strings.ToLower(orDefault(raw.Notify.Backend, defaultNotifyBackend)),
			Title:   orDefault(raw.Notify.Title, defaultNotifyTitle),
		},
		Driver: DriverConfig{
			Repo:    orDefault(raw.Driver.Repo, defaultDriverRepo),
			Dir:     mustExpand(orDefault(raw.Driver.Dir, defaultDriverDir)),
			Service: orDefault(raw.Driver.Service, defaultDriverService),
			Files:   expandAll(orDefaultList(raw.Driver.Files, defaultDriverFiles)),
		},
	}
	return cfg
}

// VenvBin returns the bin directory of the isolated Python environment.
func (c Config) VenvBin() string {
	return filepath.Join(c.VenvDir, "bin")
}

// AppExecutable returns the path of the app entrypoint inside the environment.
func (c Config) AppExecutable() string {
	return filepath.Join(c.VenvBin(), c.Package)
}

// ToolLogPath returns the rotating log used by launch and check-update.
func (c Config) ToolLogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/karaokepi.log")
	}
	return filepath.Join(c.LogDir, "karaokepi.log")
}

// IsDevChannel reports whether channel names a development or unreleased track.
func IsDevChannel(channel string) bool {
	switch strings.ToLower(strings.TrimSpace(channel)) {
	case "dev", "development", "main", "unreleased":
		return true
	}
	return false
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func orDefaultList(values, fallback []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func seconds(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}

func expandAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, mustExpand(p))
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
