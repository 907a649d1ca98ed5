package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pymend/internal/app"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	importStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list         list.Model
	missingCount int
	importCount  int
	syntaxCount  int
	fileCount    int
	lastUpdate   time.Time
}

type updateMsg struct {
	reports []app.FileReport
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.missingCount = 0
		m.importCount = 0
		m.syntaxCount = 0
		m.fileCount = len(msg.reports)
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, rep := range msg.reports {
			if rep.SyntaxError {
				m.syntaxCount++
				items = append(items, item{
					title: "Syntax Error",
					desc:  rep.Path,
				})
				continue
			}
			for _, name := range rep.Missing {
				m.missingCount++
				items = append(items, item{
					title: "Missing Name",
					desc:  fmt.Sprintf("%s in %s", name, rep.Path),
				})
			}
			for _, rec := range rep.LocalImports {
				m.importCount++
				items = append(items, item{
					title: "Relative Import",
					desc:  fmt.Sprintf("%s%s in %s", strings.Repeat(".", rec.Level), rec.Module, rep.Path),
				})
			}
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files",
		m.lastUpdate.Format("15:04:05"), m.fileCount))

	var summary string
	if m.missingCount == 0 && m.importCount == 0 && m.syntaxCount == 0 {
		summary = successStyle.Render("✅ All Names Bound")
	} else {
		summary = fmt.Sprintf("⚠️  %s | %s",
			missingStyle.Render(fmt.Sprintf("%d Missing", m.missingCount)),
			importStyle.Render(fmt.Sprintf("%d Relative Imports", m.importCount)))
		if m.syntaxCount > 0 {
			summary += " | " + missingStyle.Render(fmt.Sprintf("%d Broken", m.syntaxCount))
		}
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Variable Flow Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Detected Issues"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

// runner connects the analysis app to the watcher callback and, in UI mode,
// to the running bubbletea program.
type runner struct {
	app     *app.App
	program *tea.Program
}

func (r *runner) handleChanges(paths []string) {
	if r.program == nil {
		r.app.HandleChanges(paths)
		return
	}

	// The list shows whole-project state, so rescan everything on change.
	files, err := r.app.ScanDirectories(r.app.Config.ScanPaths)
	if err != nil {
		slog.Error("rescan failed", "error", err)
		return
	}
	result, err := r.app.Scan(context.Background(), files)
	if err != nil {
		slog.Error("re-analysis failed", "error", err)
		return
	}
	r.program.Send(updateMsg{reports: result.Reports})
}

func (r *runner) runUI(initial app.ScanResult) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	r.program = p

	go func() {
		p.Send(updateMsg{reports: initial.Reports})
	}()

	_, err := p.Run()
	return err
}
