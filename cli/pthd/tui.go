package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/history"
	"github.com/pandego/parallel-thread-skill/cli/pthd/internal/procs"
)

func (a *app) runTUI(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configPath := fs.String("config", "", "settings file")
	dir := fs.String("dir", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	outDir, manager, err := a.outputDir(*configPath, *dir)
	if err != nil {
		return err
	}

	// The UI draws on stderr so stdout carries only the chosen command.
	p := tea.NewProgram(newHistoryModel(outDir, manager), tea.WithAltScreen(), tea.WithOutput(a.stderr))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	m := finalModel.(historyModel)
	if m.chosen != nil {
		fmt.Fprintln(a.stdout, procs.FormatCommand(procs.LaunchCommand(manager, m.chosen.Path)))
	}
	return nil
}

// ---- history browser ----

type entriesMsg struct {
	Entries []history.Entry
	Err     error
}

type historyModel struct {
	dir     string
	manager string
	entries []history.Entry
	cursor  int
	chosen  *history.Entry
	err     error
	width   int
	height  int
}

func newHistoryModel(dir, manager string) historyModel {
	return historyModel{dir: dir, manager: manager}
}

func (m historyModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m historyModel) loadCmd() tea.Cmd {
	dir := m.dir
	return func() tea.Msg {
		entries, err := history.List(dir)
		return entriesMsg{Entries: entries, Err: err}
	}
}

func (m historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.loadCmd()
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.entries) && m.entries[m.cursor].Err == nil {
				sel := m.entries[m.cursor]
				m.chosen = &sel
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case entriesMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
			if m.cursor >= len(m.entries) {
				m.cursor = max(0, len(m.entries)-1)
			}
		}
	}
	return m, nil
}

func (m historyModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	selectedStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	width := m.width
	if width <= 0 {
		width = 120
	}
	height := m.height
	if height <= 0 {
		height = 32
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("pthd configs") + "\n")
	b.WriteString(mutedStyle.Render(reduce(m.dir, max(20, width-2))) + "\n")
	if m.err != nil {
		b.WriteString(warnStyle.Render("error: "+m.err.Error()) + "\n")
	}

	slugW := max(16, width-6-7-28-8)
	header := strings.Join([]string{padCell("AGE", 6), padCell("AGENTS", 7), padCell("TOOLS", 28), padCell("SLUG", slugW)}, " ")
	b.WriteString(headerStyle.Render("  "+header) + "\n")

	// List takes roughly half the screen; the rest previews the selection.
	maxRows := clamp(height/2-3, 3, 20)
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := min(len(m.entries), start+maxRows)

	if len(m.entries) == 0 {
		b.WriteString(mutedStyle.Render("(no saved configs)") + "\n")
	}
	for i := start; i < end; i++ {
		e := m.entries[i]
		agents, tools := strconv.Itoa(e.Config.Len()), blankDash(e.Counts().String())
		if e.Err != nil {
			agents, tools = "-", "unreadable"
		}
		line := strings.Join([]string{
			padCell(shortDur(sinceSafe(e.ModTime)), 6),
			padCell(agents, 7),
			padCell(tools, 28),
			padCell(e.Slug, slugW),
		}, " ")
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if end < len(m.entries) {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("... +%d more (use j/k)", len(m.entries)-end)) + "\n")
	}

	b.WriteString("\n")
	if m.cursor < len(m.entries) {
		b.WriteString(m.preview(m.entries[m.cursor], width, height-maxRows-8, headerStyle, mutedStyle, warnStyle))
	}
	b.WriteString(mutedStyle.Render("\nkeys: up/down (j/k) move, Enter print launch command, r refresh, q quit"))
	return b.String()
}

func (m historyModel) preview(e history.Entry, width, rows int, headerStyle, mutedStyle, warnStyle lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(e.Slug) + "\n")
	if e.Err != nil {
		b.WriteString(warnStyle.Render(reduce(e.Err.Error(), max(20, width-2))) + "\n")
		return b.String()
	}
	b.WriteString(mutedStyle.Render(reduce(procs.FormatCommand(procs.LaunchCommand(m.manager, e.Path)), max(20, width-2))) + "\n")
	rows = max(rows, 1)
	for i, p := range e.Config.Procs {
		if i >= rows {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("... +%d more", len(e.Config.Procs)-i)) + "\n")
			break
		}
		b.WriteString(padCell(p.Name, 10) + " " + reduce(singleLine(procs.FormatCommand(p.Cmd)), max(20, width-13)) + "\n")
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
