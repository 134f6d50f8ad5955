package procs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultManager = "mprocs"
	Ext            = ".yml"
)

// DefaultDir is the per-user temp subdirectory configs are written to.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "pthd")
}

// Path is where Write stores the config for prompt.
func Path(dir, prompt string) string {
	return filepath.Join(dir, Slugify(prompt)+Ext)
}

// Encode renders cfg as mprocs YAML with two-space indentation.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses mprocs YAML produced by Encode.
func Decode(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write stores cfg under dir, named after prompt, replacing any previous file
// with the same slug. dir is created when missing.
func Write(dir, prompt string, cfg Config) (string, error) {
	buf, err := Encode(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := Path(dir, prompt)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads and decodes the config at path.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Decode(buf)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LaunchCommand is the process manager invocation for a written config.
func LaunchCommand(manager, path string) []string {
	if strings.TrimSpace(manager) == "" {
		manager = DefaultManager
	}
	return []string{manager, "-c", path}
}

// FormatCommand joins argv into one line for display, quoting only the
// arguments a POSIX shell would otherwise split or expand.
func FormatCommand(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = shellEscapeForLine(a)
	}
	return strings.Join(parts, " ")
}

func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func shellEscapeForLine(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n'\"$`\\;&|<>()*?[]{}~#!") {
		return shellEscape(s)
	}
	return s
}
