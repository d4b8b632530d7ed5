package watch

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/randalmurphal/packlint/internal/report"
	"github.com/randalmurphal/packlint/internal/validator"
)

// The validation loop pushes these into the program with Program.Send.

// RunStartedMsg reports that changed paths triggered a validation run. An
// empty Paths slice marks the initial run at watch startup.
type RunStartedMsg struct {
	Paths []string
}

// RunFinishedMsg carries the outcome of a completed validation run.
type RunFinishedMsg struct {
	Outcome report.Outcome
}

// RunErrorMsg reports a run that failed before producing an outcome.
type RunErrorMsg struct {
	Err error
}

type tickMsg time.Time

// change is one recorded change batch for the activity log.
type change struct {
	at    time.Time
	paths []string
}

// Model is the bubbletea model for the watch dashboard.
type Model struct {
	base string

	width  int
	height int

	running   bool
	runCount  int
	lastRun   time.Time
	outcome   *report.Outcome
	lastError string
	changes   []change

	findings table.Model
	theme    Theme
}

// New creates the dashboard model for the given project base directory.
func New(base string) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "SEV", Width: 8},
			{Title: "PATH", Width: 44},
			{Title: "VALIDATOR", Width: 10},
			{Title: "MESSAGE", Width: 48},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		base:     base,
		findings: t,
		theme:    NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.findings.SetWidth(m.width - 6)

	case tickMsg:
		// Keeps the clock and "last run" age fresh between events.
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case RunStartedMsg:
		m.running = true
		if len(msg.Paths) > 0 {
			m.changes = append([]change{{at: time.Now(), paths: msg.Paths}}, m.changes...)
			if len(m.changes) > 20 {
				m.changes = m.changes[:20]
			}
		}

	case RunFinishedMsg:
		m.running = false
		m.runCount++
		m.lastRun = time.Now()
		o := msg.Outcome
		m.outcome = &o
		m.lastError = ""
		m.findings.SetRows(findingRows(o, m.theme))

	case RunErrorMsg:
		m.running = false
		m.runCount++
		m.lastRun = time.Now()
		m.lastError = msg.Err.Error()
	}

	m.findings, cmd = m.findings.Update(msg)
	return m, cmd
}

func findingRows(o report.Outcome, theme Theme) []table.Row {
	rows := make([]table.Row, 0, len(o.Violations))
	for _, v := range o.Violations {
		sev := string(v.Severity)
		switch v.Severity {
		case validator.SeverityError:
			sev = theme.Error.Render(sev)
		case validator.SeverityWarning:
			sev = theme.Warning.Render(sev)
		case validator.SeverityInfo:
			sev = theme.Info.Render(sev)
		}
		rows = append(rows, table.Row{sev, v.Path, v.Validator, v.Message})
	}
	return rows
}
