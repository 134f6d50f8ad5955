package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/history"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/procs"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/settings"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/toolspec"
)

type launchFlags struct {
	config      *string
	dir         *string
	placeholder *string
	logLevel    *string
	verbose     *bool
	models      stringSliceFlag
}

func (a *app) newLaunchFlagSet(name string) (*flag.FlagSet, *launchFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	lf := &launchFlags{
		config:      fs.String("config", "", "settings file"),
		dir:         fs.String("dir", "", "output directory"),
		placeholder: fs.String("placeholder", "", "per-agent name token in the prompt"),
		logLevel:    fs.String("log-level", "", "log level"),
		verbose:     fs.Bool("verbose", false, "debug logging"),
	}
	fs.Var(&lf.models, "model", "tool model override code=model (repeatable)")
	return fs, lf
}

// launchPlan is everything run and plan share: resolved settings plus the
// built config for one prompt and tool spec.
type launchPlan struct {
	settings settings.Settings
	prompt   string
	counts   toolspec.Counts
	config   procs.Config
}

func (a *app) prepareLaunch(name string, args []string) (launchPlan, error) {
	fs, lf := a.newLaunchFlagSet(name)
	if err := fs.Parse(launchArgs(fs, args)); err != nil {
		return launchPlan{}, err
	}
	a.setLogLevel(*lf.logLevel, *lf.verbose)
	if fs.NArg() < 2 {
		return launchPlan{}, fmt.Errorf("%w: %s needs a prompt and a tool spec", errUsage, name)
	}
	if fs.NArg() > 2 {
		a.log.Warnf("ignoring %d extra argument(s): %s", fs.NArg()-2, strings.Join(fs.Args()[2:], " "))
	}
	prompt, spec := fs.Arg(0), fs.Arg(1)

	s, err := a.loadSettings(*lf.config)
	if err != nil {
		return launchPlan{}, err
	}
	if d := strings.TrimSpace(*lf.dir); d != "" {
		s.Dir = d
	}
	if *lf.placeholder != "" {
		s.Placeholder = *lf.placeholder
	}
	models, err := parseModelOverrides(s.Registry, lf.models)
	if err != nil {
		return launchPlan{}, err
	}

	counts := s.Registry.Parse(spec)
	a.log.WithFields(logrus.Fields{"spec": spec, "counts": counts.String(), "agents": counts.Total()}).Debug("parsed tool spec")
	if len(counts) == 0 {
		a.log.Warnf("tool spec %q matched no tools (known: %s); the config will be empty", spec, strings.Join(s.Registry.Codes(), ", "))
	}
	if dropped := s.Registry.Unknown(counts); len(dropped) > 0 {
		a.log.WithField("codes", strings.Join(dropped, ",")).Debug("dropping unknown tool codes")
	}
	if !utf8.ValidString(prompt) {
		a.log.Warn("prompt is not valid UTF-8; invalid bytes are replaced")
	}
	cfg := procs.Build(s.Registry, prompt, counts, procs.Options{
		Placeholder: s.Placeholder,
		Models:      models,
	})
	return launchPlan{settings: s, prompt: prompt, counts: counts, config: cfg}, nil
}

// launchArgs inserts "--" before the first argument that is not a flag
// defined on fs, so a prompt such as "--fix the tests" stays positional.
// -h and --help still ask for help.
func launchArgs(fs *flag.FlagSet, args []string) []string {
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			return args
		}
		if len(arg) < 2 || arg[0] != '-' {
			break
		}
		name := strings.TrimPrefix(arg[1:], "-")
		name, _, hasValue := strings.Cut(name, "=")
		if name == "h" || name == "help" {
			i++
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			break
		}
		i++
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			continue
		}
		if !hasValue {
			i++
		}
	}
	if i >= len(args) {
		return args
	}
	out := append(args[:i:i], "--")
	return append(out, args[i:]...)
}

func (a *app) runLaunch(args []string) error {
	p, err := a.prepareLaunch("run", args)
	if err != nil {
		return err
	}
	path, err := procs.Write(p.settings.Dir, p.prompt, p.config)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	a.log.WithFields(logrus.Fields{"path": path, "procs": p.config.Len()}).Debug("wrote config")
	fmt.Fprintln(a.stdout, procs.FormatCommand(procs.LaunchCommand(p.settings.Manager, path)))
	return nil
}

func (a *app) runPlan(args []string) error {
	p, err := a.prepareLaunch("plan", args)
	if err != nil {
		return err
	}
	renderPlan(a.stdout, p)
	return nil
}

func (a *app) runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configPath := fs.String("config", "", "settings file")
	dir := fs.String("dir", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("%w: show needs a config file or slug and an optional process name", errUsage)
	}
	outDir, manager, err := a.outputDir(*configPath, *dir)
	if err != nil {
		return err
	}
	path := resolveConfigRef(outDir, fs.Arg(0))
	cfg, err := procs.Load(path)
	if err != nil {
		return err
	}
	if name := fs.Arg(1); name != "" {
		argv, ok := cfg.Lookup(name)
		if !ok {
			return fmt.Errorf("%s has no process %q", path, name)
		}
		fmt.Fprintln(a.stdout, procs.FormatCommand(argv))
		return nil
	}
	renderConfig(a.stdout, path, manager, cfg)
	return nil
}

func (a *app) runList(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configPath := fs.String("config", "", "settings file")
	dir := fs.String("dir", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	outDir, _, err := a.outputDir(*configPath, *dir)
	if err != nil {
		return err
	}
	entries, err := history.List(outDir)
	if err != nil {
		return err
	}
	renderHistory(a.stdout, outDir, entries)
	return nil
}

func (a *app) runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configPath := fs.String("config", "", "settings file to write")
	force := fs.Bool("force", false, "overwrite settings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := strings.TrimSpace(*configPath)
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("settings already exist at %s (use --force)", path)
	}
	if err := settings.Write(path, settings.Defaults()); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "initialized settings: %s\n", path)
	return nil
}

// loadSettings reads the settings file. Without an explicit path a missing
// default file means built-in settings.
func (a *app) loadSettings(path string) (settings.Settings, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		p, err := settings.DefaultPath()
		if err != nil {
			a.log.WithError(err).Debug("no user config dir, using built-in settings")
			return settings.File{}.Resolve()
		}
		path = p
	}
	f, err := settings.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			a.log.WithField("path", path).Debug("no settings file, using built-in settings")
			return settings.File{}.Resolve()
		}
		return settings.Settings{}, err
	}
	a.log.WithField("path", path).Debug("loaded settings")
	return f.Resolve()
}

func (a *app) outputDir(configPath, dir string) (string, string, error) {
	s, err := a.loadSettings(configPath)
	if err != nil {
		return "", "", err
	}
	if d := strings.TrimSpace(dir); d != "" {
		s.Dir = d
	}
	return s.Dir, s.Manager, nil
}

// parseModelOverrides turns repeated code=model flags into a per-code map.
// Any alias of a tool is accepted on the left-hand side.
func parseModelOverrides(reg *toolspec.Registry, raw []string) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("%w: --model wants code=model, got %q", errUsage, kv)
		}
		code, ok := reg.Canonical(k)
		if !ok {
			return nil, fmt.Errorf("--model: unknown tool %q", k)
		}
		out[code] = v
	}
	return out, nil
}

// resolveConfigRef accepts a path or a bare slug from `pthd ls`.
func resolveConfigRef(dir, ref string) string {
	if strings.ContainsRune(ref, filepath.Separator) || strings.HasSuffix(ref, procs.Ext) {
		return ref
	}
	return filepath.Join(dir, ref+procs.Ext)
}
