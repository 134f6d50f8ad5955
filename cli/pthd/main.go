package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// version is set at build time via -ldflags
var version = "dev"

var errUsage = errors.New("usage")

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	*s = append(*s, v)
	return nil
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, log: newLogger(stderr)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	if len(args) == 0 {
		a.printUsage(stderr)
		return 1
	}

	// -v and -h only act as commands on their own; followed by a tool spec
	// they are a prompt.
	cmd := args[0]
	if len(args) > 1 && strings.HasPrefix(cmd, "-") {
		cmd = ""
	}

	var err error
	switch cmd {
	case "run":
		err = a.runLaunch(args[1:])
	case "plan":
		err = a.runPlan(args[1:])
	case "show":
		err = a.runShow(args[1:])
	case "ls", "list":
		err = a.runList(args[1:])
	case "tui":
		err = a.runTUI(args[1:])
	case "init":
		err = a.runInit(args[1:])
	case "version", "-v", "--version":
		fmt.Fprintln(stdout, version)
		return 0
	case "help", "-h", "--help":
		a.printUsage(stdout)
		return 0
	default:
		// Anything else is the prompt: pthd "<prompt>" "<tool-spec>".
		err = a.runLaunch(args)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		a.printUsage(stderr)
		return 1
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

func (a *app) printUsage(w io.Writer) {
	fmt.Fprintln(w, `pthd - parallel terminal hydra: launch many agent CLIs side by side in mprocs

Usage:
  pthd [run]  [flags] "<prompt>" "<tool-spec>"   write config, print the mprocs command
  pthd plan   [flags] "<prompt>" "<tool-spec>"   show what would be launched, write nothing
  pthd show   [--dir <dir>] <file|slug> [proc]    print the processes of a saved config, or one command
  pthd ls     [--dir <dir>]                       list saved configs, newest first
  pthd tui    [--dir <dir>]                       browse saved configs; Enter prints its command
  pthd init   [--config <path>] [--force]         write the default settings file
  pthd version

Flags for run/plan (a prompt starting with "-" ends the flags; "--" also does):
  --config <path>        settings file (default: <user config dir>/pthd/config.toml)
  --dir <dir>            output directory (default: <tmp>/pthd)
  --model <code=model>   override a tool's model (repeatable), e.g. --model cc=opus
  --placeholder <tok>    per-agent name token in the prompt (default {{AGENT}})
  --log-level <level>    debug|info|warn|error (default warn)
  --verbose              same as --log-level debug

Tool spec:
  "4"                    four of every tool
  "3 cc, 2 gem"          count before tool
  "claude code: 2, oc 1" tool before count, ":" optional

Tools: cc (claude), gem (gemini), codex, oc (opencode).
Put {{AGENT}} in the prompt to give each agent its name, e.g. "save to ./out/{{AGENT}}.md".`)
}
