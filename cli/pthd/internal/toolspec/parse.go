package toolspec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Counts maps a tool code to the number of instances to launch.
type Counts map[string]int

// Total is the number of agents the counts describe.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// String renders the counts as "cc:3 gem:2" with codes sorted.
func (c Counts) String() string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%s:%d", code, c[code]))
	}
	return strings.Join(parts, " ")
}

// Parse reads a tool specification.
//
// A bare integer gives every known tool that count. Anything else is scanned
// for "<count> <alias>" pairs and then for "<alias>[:] <count>" pairs; when a
// tool is mentioned more than once the last match wins. Text that matches
// neither form yields an empty result.
func (r *Registry) Parse(spec string) Counts {
	spec = strings.TrimSpace(spec)
	out := Counts{}

	if isDigits(spec) {
		n, err := strconv.Atoi(spec)
		if err != nil {
			return out
		}
		for _, t := range r.tools {
			out[t.Code] = n
		}
		return out
	}

	for _, m := range r.countFirst.FindAllStringSubmatch(spec, -1) {
		r.apply(out, m[2], m[1])
	}
	for _, m := range r.aliasFirst.FindAllStringSubmatch(spec, -1) {
		r.apply(out, m[1], m[2])
	}
	return out
}

func (r *Registry) apply(out Counts, alias, count string) {
	n, err := strconv.Atoi(count)
	if err != nil {
		return
	}
	code, ok := r.Canonical(alias)
	if !ok {
		return
	}
	out[code] = n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
