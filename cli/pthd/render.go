package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/history"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/procs"
)

type palette struct {
	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	warn   lipgloss.Style
}

// newPalette binds styles to w so colors are dropped when w is not a terminal.
func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("244")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

func renderPlan(w io.Writer, p launchPlan) {
	pal := newPalette(w)
	path := procs.Path(p.settings.Dir, p.prompt)
	fmt.Fprintln(w, pal.title.Render(fmt.Sprintf("pthd plan: %d agent(s)", p.config.Len())))
	fmt.Fprintln(w, pal.muted.Render("tools:  "+blankDash(p.counts.String())))
	fmt.Fprintln(w, pal.muted.Render("config: "+path+" (not written)"))
	fmt.Fprintln(w, pal.muted.Render("launch: "+procs.FormatCommand(procs.LaunchCommand(p.settings.Manager, path))))
	fmt.Fprintln(w)
	if p.config.Len() == 0 {
		fmt.Fprintln(w, pal.warn.Render("(no agents: the tool spec matched nothing)"))
		return
	}
	renderProcTable(w, pal, p.config)
}

func renderConfig(w io.Writer, path, manager string, cfg procs.Config) {
	pal := newPalette(w)
	fmt.Fprintln(w, pal.title.Render(fmt.Sprintf("%s: %d agent(s)", path, cfg.Len())))
	fmt.Fprintln(w, pal.muted.Render("launch: "+procs.FormatCommand(procs.LaunchCommand(manager, path))))
	fmt.Fprintln(w)
	if cfg.Len() == 0 {
		fmt.Fprintln(w, pal.muted.Render("(no processes)"))
		return
	}
	for _, p := range cfg.Procs {
		fmt.Fprintln(w, pal.header.Render(p.Name))
		fmt.Fprintln(w, "  "+procs.FormatCommand(p.Cmd))
	}
}

func renderProcTable(w io.Writer, pal palette, cfg procs.Config) {
	nameW, cmdW := len("NAME"), len("COMMAND")
	for _, p := range cfg.Procs {
		nameW = max(nameW, visibleLen(p.Name))
		cmdW = max(cmdW, visibleLen(procs.FormatCommand(commandPart(p.Cmd))))
	}
	cmdW = min(cmdW, 72)
	header := strings.Join([]string{padCell("NAME", nameW+1), padCell("COMMAND", cmdW+1), "PROMPT"}, " ")
	fmt.Fprintln(w, pal.header.Render(header))
	fmt.Fprintln(w, pal.muted.Render(strings.Repeat("-", visibleLen(header)+20)))
	for _, p := range cfg.Procs {
		prompt := ""
		if len(p.Cmd) > 0 {
			prompt = p.Cmd[len(p.Cmd)-1]
		}
		fmt.Fprintln(w, strings.Join([]string{
			padCell(p.Name, nameW+1),
			padCell(procs.FormatCommand(commandPart(p.Cmd)), cmdW+1),
			reduce(singleLine(prompt), 60),
		}, " "))
	}
}

func renderHistory(w io.Writer, dir string, entries []history.Entry) {
	pal := newPalette(w)
	if len(entries) == 0 {
		fmt.Fprintf(w, "no saved configs in %s\n", dir)
		return
	}
	fmt.Fprintln(w, pal.title.Render("pthd configs in "+dir))
	header := strings.Join([]string{padCell("AGE", 6), padCell("AGENTS", 7), padCell("TOOLS", 28), "SLUG"}, " ")
	fmt.Fprintln(w, pal.header.Render(header))
	fmt.Fprintln(w, pal.muted.Render(strings.Repeat("-", visibleLen(header)+30)))
	for _, e := range entries {
		age := shortDur(sinceSafe(e.ModTime))
		if e.Err != nil {
			fmt.Fprintln(w, strings.Join([]string{padCell(age, 6), padCell("-", 7), padCell("-", 28), e.Slug}, " ")+" "+
				pal.warn.Render("(unreadable: "+reduce(e.Err.Error(), 60)+")"))
			continue
		}
		fmt.Fprintln(w, strings.Join([]string{
			padCell(age, 6),
			padCell(strconv.Itoa(e.Config.Len()), 7),
			padCell(blankDash(e.Counts().String()), 28),
			e.Slug,
		}, " "))
	}
}

// commandPart is argv without the trailing prompt.
func commandPart(argv []string) []string {
	if len(argv) <= 1 {
		return argv
	}
	return argv[:len(argv)-1]
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func blankDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return strings.TrimSpace(v)
}

func shortDur(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func sinceSafe(t time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	d := time.Since(t)
	if d < 0 {
		return 0
	}
	return d
}

func padCell(s string, w int) string {
	if w <= 1 {
		return ""
	}
	s = reduce(s, w)
	r := []rune(s)
	if len(r) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(r))
}

func visibleLen(s string) int {
	return len([]rune(s))
}

// reduce trims s to n runes, marking the cut with an ellipsis.
func reduce(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	if n <= 1 {
		return string([]rune(s)[:n])
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
