package procs

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/toolspec"
)

func procMap(cfg Config) map[string][]string {
	out := make(map[string][]string, len(cfg.Procs))
	for _, p := range cfg.Procs {
		out[p.Name] = p.Cmd
	}
	return out
}

func TestBuild_PlaceholderPerInstance(t *testing.T) {
	cfg := Build(toolspec.Default(), "hello {{AGENT}}", toolspec.Counts{"cc": 2}, Options{})
	if cfg.Len() != 2 {
		t.Fatalf("expected 2 procs, got %d", cfg.Len())
	}
	want := map[string][]string{
		"cc-1": {"claude", "--model", "sonnet", "--dangerously-skip-permissions", "hello cc-1"},
		"cc-2": {"claude", "--model", "sonnet", "--dangerously-skip-permissions", "hello cc-2"},
	}
	if got := procMap(cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected procs:\nwant %v\ngot  %v", want, got)
	}
}

func TestBuild_OrderAndUnknownCodes(t *testing.T) {
	counts := toolspec.Counts{"oc": 1, "cc": 11, "aider": 3, "gem": 0}
	cfg := Build(toolspec.Default(), "p", counts, Options{})
	if cfg.Len() != 12 {
		t.Fatalf("expected 12 procs, got %d", cfg.Len())
	}
	if cfg.Procs[0].Name != "cc-1" || cfg.Procs[9].Name != "cc-10" || cfg.Procs[11].Name != "oc-1" {
		t.Fatalf("unexpected order: %s %s %s", cfg.Procs[0].Name, cfg.Procs[9].Name, cfg.Procs[11].Name)
	}
	for _, p := range cfg.Procs {
		if strings.HasPrefix(p.Name, "aider") || strings.HasPrefix(p.Name, "gem") {
			t.Fatalf("unexpected proc %s", p.Name)
		}
	}
}

func TestBuild_OptionsOverrideModelAndPlaceholder(t *testing.T) {
	opts := Options{Placeholder: "<me>", Models: map[string]string{"codex": "o4"}}
	cfg := Build(toolspec.Default(), "write <me>.md, not {{AGENT}}", toolspec.Counts{"codex": 1}, opts)
	got, ok := cfg.Lookup("codex-1")
	if !ok {
		t.Fatal("codex-1 missing")
	}
	want := []string{"codex", "-m", "o4", "--dangerously-bypass-approvals-and-sandbox", "write codex-1.md, not {{AGENT}}"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestBuild_InvalidUTF8PromptStaysAString(t *testing.T) {
	cfg := Build(toolspec.Default(), "bad \xff utf8 {{AGENT}}", toolspec.Counts{"cc": 1}, Options{})
	buf, err := Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(buf), "!!binary") {
		t.Fatalf("prompt encoded as binary:\n%s", buf)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	argv, _ := got.Lookup("cc-1")
	if want := "bad \uFFFD utf8 cc-1"; argv[len(argv)-1] != want {
		t.Fatalf("want %q, got %q", want, argv[len(argv)-1])
	}
}

func TestConfigLookup(t *testing.T) {
	cfg := Config{Procs: []Proc{{Name: "cc-1", Cmd: []string{"claude", "a"}}, {Name: "oc-1", Cmd: []string{"opencode", "b"}}}}
	if got, ok := cfg.Lookup("oc-1"); !ok || !reflect.DeepEqual(got, []string{"opencode", "b"}) {
		t.Fatalf("unexpected lookup: %v %v", got, ok)
	}
	if _, ok := cfg.Lookup("gem-1"); ok {
		t.Fatal("gem-1 should be missing")
	}
}

func TestBuild_EmptyCounts(t *testing.T) {
	cfg := Build(toolspec.Default(), "p", toolspec.Counts{}, Options{})
	if cfg.Len() != 0 {
		t.Fatalf("expected empty config, got %d procs", cfg.Len())
	}
}

func TestBuild_PromptIsNeverSplit(t *testing.T) {
	prompt := `it's "quoted" $(rm -rf /) ; echo done`
	cfg := Build(toolspec.Default(), prompt, toolspec.Counts{"gem": 1}, Options{})
	cmd := cfg.Procs[0].Cmd
	if cmd[len(cmd)-1] != prompt {
		t.Fatalf("prompt changed: %q", cmd[len(cmd)-1])
	}
}

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Build a TODO app!":       "build-a-todo-app",
		"  --hello--world--  ":    "hello-world",
		"save to ./tmp/{{AGENT}}": "save-to-tmp-agent",
		"???":                     "pthd",
		"":                        "pthd",
		"Ünïcode ok":              "n-code-ok",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestSlugify_Properties(t *testing.T) {
	inputs := []string{
		"a",
		"Review the repository and write findings to ./out/{{AGENT}}.md please, thoroughly",
		strings.Repeat("x", 200),
		strings.Repeat("ab ", 40),
		"Mixed CASE with 123 numbers",
	}
	seen := map[string]string{}
	for _, in := range inputs {
		s := Slugify(in)
		if s != Slugify(in) {
			t.Fatalf("slug not stable for %q", in)
		}
		if len(s) > MaxSlugLen {
			t.Fatalf("slug too long (%d): %q", len(s), s)
		}
		if !slugShape.MatchString(s) {
			t.Fatalf("bad slug shape: %q", s)
		}
		if prev, ok := seen[s]; ok {
			t.Fatalf("collision between %q and %q", prev, in)
		}
		seen[s] = in
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "pthd")
	prompt := "review {{AGENT}}: it's \"done\"\nnext line"
	cfg := Build(toolspec.Default(), prompt, toolspec.Counts{"cc": 2, "gem": 1, "codex": 1, "oc": 10}, Options{})

	path, err := Write(dir, prompt, cfg)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if want := filepath.Join(dir, Slugify(prompt)+".yml"); path != want {
		t.Fatalf("unexpected path: want %s, got %s", want, path)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v", cfg, got)
	}
}

func TestWrite_OverwritesSameSlug(t *testing.T) {
	dir := t.TempDir()
	first := Build(toolspec.Default(), "same", toolspec.Counts{"cc": 3}, Options{})
	second := Build(toolspec.Default(), "same", toolspec.Counts{"oc": 1}, Options{})
	p1, err := Write(dir, "same", first)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Write(dir, "SAME", second)
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Fatalf("expected same path, got %s and %s", p1, p2)
	}
	got, err := Load(p2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Fatalf("expected second config to win, got %v", procMap(got))
	}
}

func TestEncode_Layout(t *testing.T) {
	cfg := Config{Procs: []Proc{{Name: "cc-1", Cmd: []string{"claude", "hi"}}}}
	buf, err := Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := "procs:\n  cc-1:\n    cmd:\n      - claude\n      - hi\n"
	if string(buf) != want {
		t.Fatalf("unexpected yaml:\n%s", buf)
	}
	empty, err := Encode(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if string(empty) != "procs: {}\n" {
		t.Fatalf("unexpected empty yaml: %q", empty)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte("- a\n- b\n")); err == nil {
		t.Fatal("expected error for sequence document")
	}
	if _, err := Decode([]byte("procs: [1, 2]\n")); err == nil {
		t.Fatal("expected error for non-mapping procs")
	}
	if _, err := Decode([]byte("procs:\n  a:\n    cmd: [x]\n  a:\n    cmd: [y]\n")); err == nil {
		t.Fatal("expected error for duplicate proc")
	}
	cfg, err := Decode([]byte("procs:\n"))
	if err != nil || cfg.Len() != 0 {
		t.Fatalf("expected empty config, got %v, %v", cfg, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLaunchCommand(t *testing.T) {
	argv := LaunchCommand("", "/tmp/pthd/build-it.yml")
	if !reflect.DeepEqual(argv, []string{"mprocs", "-c", "/tmp/pthd/build-it.yml"}) {
		t.Fatalf("unexpected argv: %v", argv)
	}
	if got := FormatCommand(argv); got != "mprocs -c /tmp/pthd/build-it.yml" {
		t.Fatalf("unexpected line: %s", got)
	}
	if got := FormatCommand([]string{"mprocs", "-c", "/My Files/it's.yml"}); got != `mprocs -c '/My Files/it'"'"'s.yml'` {
		t.Fatalf("unexpected quoted line: %s", got)
	}
}
