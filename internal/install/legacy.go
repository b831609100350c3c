package install

import (
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/karaokepi/internal/config"
)

// envMarkers identify a Python virtual environment.
var envMarkers = []string{"pyvenv.cfg", filepath.Join("bin", "python"), filepath.Join("bin", "activate")}

// LegacyTargets returns the configured legacy paths that are safe to remove.
// A Python environment is only a target when it has the app installed;
// ~/.venv is a common name for the user's own environment.
func LegacyTargets(fs afero.Fs, cfg config.Config) []string {
	out := make([]string, 0, len(cfg.LegacyPaths))
	for _, p := range cfg.LegacyPaths {
		if isEnv(fs, p) && !hasApp(fs, p, cfg.Package) {
			log.Infof("keeping %s: python environment without %s", p, cfg.Package)
			continue
		}
		out = append(out, p)
	}
	return out
}

// existingAny reports whether any of paths exists.
func existingAny(fs afero.Fs, paths []string) bool {
	for _, p := range paths {
		if ok, _ := afero.Exists(fs, p); ok {
			return true
		}
	}
	return false
}

func isEnv(fs afero.Fs, dir string) bool {
	if ok, _ := afero.DirExists(fs, dir); !ok {
		return false
	}
	for _, m := range envMarkers {
		if ok, _ := afero.Exists(fs, filepath.Join(dir, m)); ok {
			return true
		}
	}
	return false
}

func hasApp(fs afero.Fs, dir, pkg string) bool {
	ok, _ := afero.Exists(fs, filepath.Join(dir, "bin", pkg))
	return ok
}
