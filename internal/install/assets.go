package install

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/five82/karaokepi/internal/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("assets").Funcs(template.FuncMap{
	"shquote":   shellQuote,
	"execquote": execQuote,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Asset is one generated file.
type Asset struct {
	Name     string
	Dest     string
	Mode     os.FileMode
	Template string
}

// AssetData is what the templates see.
type AssetData struct {
	AppName     string
	Executable  string
	StartScript string
	VenvBin     string
}

// Manifest lists the assets placed on every install. It is derived from cfg
// each run, never cached.
func Manifest(cfg config.Config) []Asset {
	return []Asset{
		{Name: "start script", Dest: cfg.StartScript, Mode: 0o755, Template: "start.sh.tmpl"},
		{Name: "shell aliases", Dest: cfg.AliasesFile, Mode: 0o644, Template: "aliases.sh.tmpl"},
		{Name: "desktop shortcut", Dest: cfg.DesktopShortcut, Mode: 0o755, Template: "shortcut.desktop.tmpl"},
	}
}

// AutostartAsset is the login descriptor.
func AutostartAsset(cfg config.Config) Asset {
	return Asset{Name: "autostart entry", Dest: cfg.AutostartFile, Mode: 0o644, Template: "autostart.desktop.tmpl"}
}

// Render produces the asset's content.
func (a Asset) Render(data AssetData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, a.Template, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", a.Name, err)
	}
	return buf.Bytes(), nil
}

// Place writes the asset, overwriting any previous copy, and re-applies its
// mode so a hand-edited permission is corrected.
func (a Asset) Place(fs afero.Fs, data AssetData) error {
	content, err := a.Render(data)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(a.Dest), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", a.Name, err)
	}
	if err := afero.WriteFile(fs, a.Dest, content, a.Mode); err != nil {
		return fmt.Errorf("write %s: %w", a.Name, err)
	}
	if err := fs.Chmod(a.Dest, a.Mode); err != nil {
		return fmt.Errorf("chmod %s: %w", a.Name, err)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// execQuote quotes an argument for a desktop entry Exec key.
func execQuote(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
