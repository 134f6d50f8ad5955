package procs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/toolspec"
)

const (
	// DefaultPlaceholder is replaced in the prompt by each instance's name.
	DefaultPlaceholder = "{{AGENT}}"
	// MaxSlugLen bounds the config file name derived from the prompt.
	MaxSlugLen = 50

	fallbackSlug = "pthd"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Options tune Build beyond the registry defaults.
type Options struct {
	// Placeholder defaults to DefaultPlaceholder.
	Placeholder string
	// Models overrides the model per tool code.
	Models map[string]string
}

// Build expands counts into one process per agent instance, in registry order.
// Codes the registry does not know are skipped. Invalid UTF-8 in prompt is
// replaced with U+FFFD so every argument encodes as a plain YAML string.
func Build(reg *toolspec.Registry, prompt string, counts toolspec.Counts, opts Options) Config {
	prompt = strings.ToValidUTF8(prompt, "\uFFFD")
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	var cfg Config
	for _, tool := range reg.Tools() {
		n, ok := counts[tool.Code]
		if !ok {
			continue
		}
		model := opts.Models[tool.Code]
		for i := 1; i <= n; i++ {
			name := ProcName(tool.Code, i)
			cfg.Procs = append(cfg.Procs, Proc{
				Name: name,
				Cmd:  tool.Args(model, strings.ReplaceAll(prompt, placeholder, name)),
			})
		}
	}
	return cfg
}

// ProcName is the mprocs name of instance idx (1-based) of a tool.
func ProcName(code string, idx int) string {
	return fmt.Sprintf("%s-%d", code, idx)
}

// Slugify turns a prompt into a file-system safe name: lower case, runs of
// anything outside [a-z0-9] collapsed to "-", at most MaxSlugLen bytes, no
// leading or trailing "-".
func Slugify(text string) string {
	v := slugSeparators.ReplaceAllString(strings.ToLower(text), "-")
	if len(v) > MaxSlugLen {
		v = v[:MaxSlugLen]
	}
	v = strings.Trim(v, "-")
	if v == "" {
		return fallbackSlug
	}
	return v
}
