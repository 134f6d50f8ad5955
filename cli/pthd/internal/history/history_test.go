package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/procs"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/toolspec"
)

func TestList_MissingDir(t *testing.T) {
	entries, err := List(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestList_NewestFirstWithBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	reg := toolspec.Default()

	older, err := procs.Write(dir, "older run", procs.Build(reg, "older run", toolspec.Counts{"cc": 2}, procs.Options{}))
	if err != nil {
		t.Fatal(err)
	}
	newer, err := procs.Write(dir, "newer run", procs.Build(reg, "newer run", toolspec.Counts{"gem": 1, "codex": 3}, procs.Options{}))
	if err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.yml")
	if err := os.WriteFile(broken, []byte("- not\n- a config\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.yml"), 0o755); err != nil {
		t.Fatal(err)
	}

	base := time.Now().Add(-time.Hour)
	for i, p := range []string{broken, older, newer} {
		ts := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(p, ts, ts); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Path != newer || entries[1].Path != older || entries[2].Path != broken {
		t.Fatalf("unexpected order: %s, %s, %s", entries[0].Path, entries[1].Path, entries[2].Path)
	}
	if entries[0].Slug != "newer-run" {
		t.Fatalf("unexpected slug: %s", entries[0].Slug)
	}
	if got := entries[0].Counts(); !reflect.DeepEqual(got, toolspec.Counts{"gem": 1, "codex": 3}) {
		t.Fatalf("unexpected counts: %v", got)
	}
	if entries[2].Err == nil {
		t.Fatal("expected parse error for broken.yml")
	}
	if entries[1].Err != nil || entries[1].Config.Len() != 2 {
		t.Fatalf("unexpected older entry: %+v", entries[1])
	}
}
