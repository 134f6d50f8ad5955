package toolspec

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ModelToken marks the position of the resolved model inside a flag template.
const ModelToken = "{model}"

var (
	ErrDuplicateAlias = errors.New("alias maps to more than one tool")
	ErrDuplicateTool  = errors.New("duplicate tool code")
)

// Tool is one agent CLI: how to invoke it and the names a spec may use for it.
type Tool struct {
	Code    string
	Binary  string
	Model   string
	Flags   []string
	Aliases []string
}

// Args renders the argument vector for one agent instance: the binary, the
// flag template with the model filled in, and the prompt as the last element.
// An empty model falls back to the tool default.
func (t Tool) Args(model, prompt string) []string {
	model = firstNonEmpty(strings.TrimSpace(model), t.Model)
	out := make([]string, 0, len(t.Flags)+2)
	out = append(out, t.Binary)
	for _, f := range t.Flags {
		out = append(out, strings.ReplaceAll(f, ModelToken, model))
	}
	return append(out, prompt)
}

func (t Tool) clone() Tool {
	t.Flags = append([]string(nil), t.Flags...)
	t.Aliases = append([]string(nil), t.Aliases...)
	return t
}

var builtinTools = []Tool{
	{
		Code:    "cc",
		Binary:  "claude",
		Model:   "sonnet",
		Flags:   []string{"--model", ModelToken, "--dangerously-skip-permissions"},
		Aliases: []string{"claude code", "claude-code", "claude", "cc"},
	},
	{
		Code:    "gem",
		Binary:  "gemini",
		Model:   "gemini-3-pro-preview",
		Flags:   []string{"--model", ModelToken, "-y", "-i"},
		Aliases: []string{"gemini cli", "gemini-cli", "gemini", "gems", "gem"},
	},
	{
		Code:    "codex",
		Binary:  "codex",
		Model:   "gpt-5.1-codex-max",
		Flags:   []string{"-m", ModelToken, "--dangerously-bypass-approvals-and-sandbox"},
		Aliases: []string{"codex cli", "codex-cli", "codex"},
	},
	{
		Code:    "oc",
		Binary:  "opencode",
		Model:   "opencode/kimi-k2.5-free",
		Flags:   []string{"--model", ModelToken, "--prompt"},
		Aliases: []string{"open code", "open-code", "opencode", "oc"},
	},
}

// Defaults returns a copy of the built-in tool table.
func Defaults() []Tool {
	out := make([]Tool, len(builtinTools))
	for i, t := range builtinTools {
		out[i] = t.clone()
	}
	return out
}

// Registry is an immutable view over a tool table. The zero value is not
// usable; build one with NewRegistry or Default.
type Registry struct {
	tools      []Tool
	byCode     map[string]int
	aliases    map[string]string
	countFirst *regexp.Regexp
	aliasFirst *regexp.Regexp
}

// NewRegistry validates tools and compiles the spec patterns. Codes are
// lowercased and always count as aliases; an alias shared by two tools is an
// ErrDuplicateAlias.
func NewRegistry(tools []Tool) (*Registry, error) {
	r := &Registry{
		tools:   make([]Tool, 0, len(tools)),
		byCode:  make(map[string]int, len(tools)),
		aliases: map[string]string{},
	}
	for _, t := range tools {
		t = t.clone()
		t.Code = strings.ToLower(strings.TrimSpace(t.Code))
		t.Binary = strings.TrimSpace(t.Binary)
		if t.Code == "" {
			return nil, errors.New("tool.code required")
		}
		if _, ok := r.byCode[t.Code]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, t.Code)
		}
		if t.Binary == "" {
			return nil, fmt.Errorf("tool %s missing binary", t.Code)
		}
		names := append([]string{t.Code}, t.Aliases...)
		t.Aliases = t.Aliases[:0]
		for _, a := range names {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			if owner, ok := r.aliases[a]; ok {
				if owner != t.Code {
					return nil, fmt.Errorf("%w: %q (%s, %s)", ErrDuplicateAlias, a, owner, t.Code)
				}
				continue
			}
			r.aliases[a] = t.Code
			t.Aliases = append(t.Aliases, a)
		}
		r.byCode[t.Code] = len(r.tools)
		r.tools = append(r.tools, t)
	}

	// Longest alias first so "claude code" wins over "claude".
	alts := make([]string, 0, len(r.aliases))
	for a := range r.aliases {
		alts = append(alts, a)
	}
	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})
	for i, a := range alts {
		alts[i] = regexp.QuoteMeta(a)
	}
	alt := strings.Join(alts, "|")
	if alt == "" {
		// Matches nothing; keeps Parse free of nil checks.
		alt = `[^\s\S]`
	}
	// \s is ASCII only; \p{Zs} adds no-break and other Unicode spaces.
	r.countFirst = regexp.MustCompile(`(?i)(\d+)` + space + `*(` + alt + `)`)
	r.aliasFirst = regexp.MustCompile(`(?i)(` + alt + `)` + space + `*[:\s\p{Zs}]` + space + `*(\d+)`)
	return r, nil
}

const space = `[\s\p{Zs}]`

var defaultRegistry = mustRegistry(Defaults())

func mustRegistry(tools []Tool) *Registry {
	r, err := NewRegistry(tools)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry built from the built-in tool table.
func Default() *Registry { return defaultRegistry }

// Codes returns the tool codes in table order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Code
	}
	return out
}

func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.clone()
	}
	return out
}

func (r *Registry) Tool(code string) (Tool, bool) {
	idx, ok := r.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Tool{}, false
	}
	return r.tools[idx].clone(), true
}

// Unknown returns the codes in c that name no tool in r, sorted.
func (r *Registry) Unknown(c Counts) []string {
	var out []string
	for code := range c {
		if _, ok := r.byCode[code]; !ok {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// Canonical resolves a free-text alias to its tool code.
func (r *Registry) Canonical(alias string) (string, bool) {
	code, ok := r.aliases[strings.ToLower(strings.TrimSpace(alias))]
	return code, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
