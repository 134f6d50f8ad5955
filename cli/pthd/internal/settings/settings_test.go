package settings

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/procs"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/toolspec"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWriteLoad_DefaultsResolveToBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pthd", "config.toml")
	if err := Write(path, Defaults()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	s, err := f.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(s.Registry.Tools(), toolspec.Default().Tools()) {
		t.Fatalf("tool table changed after round trip:\n%v\n%v", s.Registry.Tools(), toolspec.Default().Tools())
	}
	if s.Placeholder != procs.DefaultPlaceholder || s.Manager != procs.DefaultManager {
		t.Fatalf("unexpected placeholder/manager: %q %q", s.Placeholder, s.Manager)
	}
	if s.Dir != procs.DefaultDir() {
		t.Fatalf("unexpected dir: %s", s.Dir)
	}
}

func TestResolve_Overrides(t *testing.T) {
	path := writeFile(t, `
placeholder = "<<NAME>>"
manager = "/opt/bin/mprocs"
dir = "/tmp/elsewhere"

[tools.cc]
model = "opus"

[tools.oc]
binary = "oc-bin"
flags = ["--prompt"]
aliases = ["oc", "open"]
`)
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if s.Placeholder != "<<NAME>>" || s.Manager != "/opt/bin/mprocs" || s.Dir != "/tmp/elsewhere" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	cc, _ := s.Registry.Tool("cc")
	if got := cc.Args("", "p"); !reflect.DeepEqual(got, []string{"claude", "--model", "opus", "--dangerously-skip-permissions", "p"}) {
		t.Fatalf("unexpected cc args: %v", got)
	}
	oc, _ := s.Registry.Tool("oc")
	if got := oc.Args("", "p"); !reflect.DeepEqual(got, []string{"oc-bin", "--prompt", "p"}) {
		t.Fatalf("unexpected oc args: %v", got)
	}
	if got := s.Registry.Parse("2 open"); !reflect.DeepEqual(got, toolspec.Counts{"oc": 2}) {
		t.Fatalf("custom alias not parsed: %v", got)
	}
	if _, ok := s.Registry.Canonical("opencode"); ok {
		t.Fatal("replaced alias list should drop opencode")
	}
}

func TestResolve_UnknownTool(t *testing.T) {
	f := File{Tools: map[string]ToolSettings{"aider": {Binary: "aider"}}}
	if _, err := f.Resolve(); !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestResolve_AliasClash(t *testing.T) {
	f := File{Tools: map[string]ToolSettings{"gem": {Aliases: []string{"claude"}}}}
	if _, err := f.Resolve(); !errors.Is(err, toolspec.ErrDuplicateAlias) {
		t.Fatalf("expected ErrDuplicateAlias, got %v", err)
	}
}

func TestResolve_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	s, err := File{Dir: "~/pthd-out"}.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if s.Dir != filepath.Join(home, "pthd-out") {
		t.Fatalf("unexpected dir: %s", s.Dir)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "placholder = \"x\"\n[tools.cc]\nmodle = \"opus\"\n")
	_, err := Load(path)
	if !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
