// Package procs builds and persists the mprocs launch configuration: one
// named process per agent instance, each with a literal argument vector.
package procs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Proc is one mprocs process: a unique name and the argv it runs.
type Proc struct {
	Name string
	Cmd  []string
}

// Config is an mprocs configuration. Procs keep the order they were built in,
// which is also the order they are written and read back.
type Config struct {
	Procs []Proc
}

type procDef struct {
	Cmd []string `yaml:"cmd"`
}

func (c Config) Len() int { return len(c.Procs) }

// Lookup returns the argument vector of the named process.
func (c Config) Lookup(name string) ([]string, bool) {
	for _, p := range c.Procs {
		if p.Name == name {
			return p.Cmd, true
		}
	}
	return nil, false
}

// MarshalYAML writes procs as a mapping node so entry order survives; a plain
// Go map would be emitted with sorted keys (cc-10 before cc-2).
func (c Config) MarshalYAML() (any, error) {
	procs := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range c.Procs {
		var def yaml.Node
		if err := def.Encode(procDef{Cmd: p.Cmd}); err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.Name, err)
		}
		procs.Content = append(procs.Content, strNode(p.Name), &def)
	}
	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: []*yaml.Node{strNode("procs"), procs},
	}, nil
}

func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: config must be a mapping", value.Line)
	}
	c.Procs = nil
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value != "procs" {
			continue
		}
		procs := value.Content[i+1]
		if procs.Tag == "!!null" {
			return nil
		}
		if procs.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: procs must be a mapping", procs.Line)
		}
		seen := map[string]bool{}
		for j := 0; j+1 < len(procs.Content); j += 2 {
			name := procs.Content[j].Value
			if seen[name] {
				return fmt.Errorf("line %d: duplicate proc %s", procs.Content[j].Line, name)
			}
			seen[name] = true
			var def procDef
			if err := procs.Content[j+1].Decode(&def); err != nil {
				return fmt.Errorf("proc %s: %w", name, err)
			}
			c.Procs = append(c.Procs, Proc{Name: name, Cmd: def.Cmd})
		}
	}
	return nil
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
