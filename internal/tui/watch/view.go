package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/randalmurphal/packlint/internal/validator"
)

func (m Model) View() string {
	if m.width == 0 {
		return "Starting watch..."
	}

	header := m.renderHeader()
	findings := m.renderFindings()
	changes := m.renderChanges()
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
		Render(" [q] Quit • [↑/↓] Scroll findings")

	parts := []string{header, findings, changes}
	if m.lastError != "" {
		parts = append(parts, m.theme.Error.Render(" ⚠ "+m.lastError))
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) renderHeader() string {
	innerWidth := m.width - 4

	status := m.theme.Dim.Render("WAITING")
	switch {
	case m.running:
		status = m.theme.Running.Render("VALIDATING")
	case m.lastError != "":
		status = m.theme.Error.Render("RUN FAILED")
	case m.outcome != nil && m.outcome.Skipped:
		status = m.theme.Dim.Render("SKIPPED")
	case m.outcome != nil && m.outcome.Failed:
		status = m.theme.Error.Render("FAIL")
	case m.outcome != nil:
		status = m.theme.Pass.Render("PASS")
	}

	clock := m.theme.Dim.Render(time.Now().Format("15:04:05"))
	titleText := fmt.Sprintf(" PACKLINT WATCH %s", m.theme.Highlight.Render(m.base))
	pad := innerWidth - lipgloss.Width(titleText) - lipgloss.Width(clock) - 4
	if pad < 1 {
		pad = 1
	}
	titleLine := titleText + strings.Repeat(" ", pad) + clock + " "

	lastRunStr := "never"
	if !m.lastRun.IsZero() {
		lastRunStr = fmt.Sprintf("%s ago", time.Since(m.lastRun).Round(time.Second))
	}

	var counts string
	if m.outcome != nil {
		counts = fmt.Sprintf("  errors: %d  warnings: %d  infos: %d",
			m.outcome.Totals[validator.SeverityError],
			m.outcome.Totals[validator.SeverityWarning],
			m.outcome.Totals[validator.SeverityInfo])
	}

	statsLine := fmt.Sprintf(" %s  runs: %d  last: %s%s", status, m.runCount, lastRunStr, counts)

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, statsLine)
	return m.theme.Border.Width(innerWidth).Render(content)
}

func (m Model) renderFindings() string {
	innerWidth := m.width - 4

	if m.outcome == nil || len(m.outcome.Violations) == 0 {
		body := m.theme.Dim.Render("  No findings.")
		if m.outcome == nil {
			body = m.theme.Dim.Render("  Waiting for first run...")
		}
		return m.theme.Border.Width(innerWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left, m.theme.Title.Render("FINDINGS"), body),
		)
	}

	return m.theme.Border.Width(innerWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("FINDINGS"),
			m.findings.View(),
		),
	)
}

func (m Model) renderChanges() string {
	innerWidth := m.width - 4

	if len(m.changes) == 0 {
		return m.theme.Border.Width(innerWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				m.theme.Title.Render("CHANGES"),
				m.theme.Dim.Render("  Waiting for file changes..."),
			),
		)
	}

	var lines []string
	for i, c := range m.changes {
		if i >= 8 {
			break
		}
		ts := m.theme.Dim.Render(c.at.Format("15:04:05"))
		desc := c.paths[0]
		if len(c.paths) > 1 {
			desc = fmt.Sprintf("%s (+%d more)", c.paths[0], len(c.paths)-1)
		}
		lines = append(lines, fmt.Sprintf("%s %s", ts, desc))
	}

	body := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	return m.theme.Border.Width(innerWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.theme.Title.Render("CHANGES"), body),
	)
}
