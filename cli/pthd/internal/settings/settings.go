// Package settings loads the optional user settings file that overrides the
// built-in tool table, the prompt placeholder and where configs are written.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/procs"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/toolspec"
)

var (
	ErrUnknownTool    = errors.New("unknown tool")
	ErrUnknownSetting = errors.New("unknown setting")
)

// File mirrors config.toml. Empty fields keep the built-in value.
type File struct {
	Placeholder string                  `toml:"placeholder"`
	Manager     string                  `toml:"manager"`
	Dir         string                  `toml:"dir"`
	Tools       map[string]ToolSettings `toml:"tools"`
}

type ToolSettings struct {
	Binary  string   `toml:"binary"`
	Model   string   `toml:"model"`
	Flags   []string `toml:"flags"`
	Aliases []string `toml:"aliases"`
}

// Settings is the resolved configuration a run works with.
type Settings struct {
	Registry    *toolspec.Registry
	Placeholder string
	Manager     string
	Dir         string
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pthd", "config.toml"), nil
}

// Defaults is the built-in settings as a File, the content `pthd init` writes.
func Defaults() File {
	f := File{
		Placeholder: procs.DefaultPlaceholder,
		Manager:     procs.DefaultManager,
		Tools:       map[string]ToolSettings{},
	}
	for _, t := range toolspec.Defaults() {
		f.Tools[t.Code] = ToolSettings{
			Binary:  t.Binary,
			Model:   t.Model,
			Flags:   t.Flags,
			Aliases: t.Aliases,
		}
	}
	return f
}

// Load decodes path. Keys the File type does not know are rejected so a typo
// does not silently fall back to a default.
func Load(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return File{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownSetting, strings.Join(keys, ", "))
	}
	return f, nil
}

func Write(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.WriteString("# pthd settings\n# {model} in flags is replaced by the tool's model; the prompt is always appended last.\n\n"); err != nil {
		return err
	}
	if err := toml.NewEncoder(out).Encode(f); err != nil {
		return err
	}
	return out.Close()
}

// Resolve applies f on top of the built-in tool table.
func (f File) Resolve() (Settings, error) {
	tools := toolspec.Defaults()
	index := make(map[string]int, len(tools))
	for i, t := range tools {
		index[t.Code] = i
	}
	codes := make([]string, 0, len(f.Tools))
	for code := range f.Tools {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		i, ok := index[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			return Settings{}, fmt.Errorf("%w %q in settings", ErrUnknownTool, code)
		}
		ts := f.Tools[code]
		if v := strings.TrimSpace(ts.Binary); v != "" {
			tools[i].Binary = v
		}
		if v := strings.TrimSpace(ts.Model); v != "" {
			tools[i].Model = v
		}
		if ts.Flags != nil {
			tools[i].Flags = append([]string(nil), ts.Flags...)
		}
		if len(ts.Aliases) > 0 {
			tools[i].Aliases = append([]string(nil), ts.Aliases...)
		}
	}
	reg, err := toolspec.NewRegistry(tools)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	dir := expandHome(strings.TrimSpace(f.Dir))
	if dir == "" {
		dir = procs.DefaultDir()
	}
	return Settings{
		Registry:    reg,
		Placeholder: firstNonEmpty(f.Placeholder, procs.DefaultPlaceholder),
		Manager:     firstNonEmpty(strings.TrimSpace(f.Manager), procs.DefaultManager),
		Dir:         dir,
	}, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
