// Package history lists the launch configs previously written to the output
// directory.
package history

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/procs"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/toolspec"
)

type Entry struct {
	Path    string
	Slug    string
	ModTime time.Time
	Config  procs.Config
	// Err is set when the file could not be read or parsed; Config is empty then.
	Err error
}

// Counts groups the entry's processes by the tool code in front of "-<n>".
func (e Entry) Counts() toolspec.Counts {
	out := toolspec.Counts{}
	for _, p := range e.Config.Procs {
		code := p.Name
		if i := strings.LastIndex(code, "-"); i > 0 {
			code = code[:i]
		}
		out[code]++
	}
	return out
}

// List returns the configs in dir, newest first. A missing dir is an empty
// history, not an error.
func List(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != procs.Ext {
			continue
		}
		e := Entry{
			Path: filepath.Join(dir, de.Name()),
			Slug: strings.TrimSuffix(de.Name(), procs.Ext),
		}
		if info, err := de.Info(); err == nil {
			e.ModTime = info.ModTime()
		}
		e.Config, e.Err = procs.Load(e.Path)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}
