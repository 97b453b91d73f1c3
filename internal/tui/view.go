package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/agentdeck/internal/domain"
)

const groupHeaderWidth = 60

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("agentdeck"))
	b.WriteString("  ")
	b.WriteString(m.viewRateLimit())
	b.WriteString("\n")

	if m.overview == nil {
		b.WriteString("\nLoading...\n")
		return m.styles.App.Render(b.String())
	}

	if len(m.tasks) == 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.TaskMeta.Render("No tasks. Add one with `deck task new`."))
		b.WriteString("\n")
	}

	idx := 0
	for _, p := range m.overview.Projects {
		first := true
		for idx < len(m.tasks) && m.tasks[idx].ProjectID == p.ID {
			if first {
				b.WriteString("\n")
				b.WriteString(m.viewGroupHeader(p.Name))
				b.WriteString("\n")
				first = false
			}
			b.WriteString(m.viewTask(m.tasks[idx], idx == m.cursor))
			b.WriteString("\n")
			idx++
		}
	}

	b.WriteString(m.viewFooter())
	return m.styles.App.Render(b.String())
}

func (m *Model) viewGroupHeader(name string) string {
	label := " " + name + " "
	rest := max(groupHeaderWidth-lipgloss.Width(label)-2, 0)
	return m.styles.GroupHeaderLine.Render("──") +
		m.styles.GroupHeaderLabel.Render(label) +
		m.styles.GroupHeaderLine.Render(strings.Repeat("─", rest))
}

func (m *Model) viewTask(t *domain.Task, selected bool) string {
	cursor := "  "
	title := m.styles.TaskNormal.Render(t.Title)
	if selected {
		cursor = m.styles.CursorSelected.Render("> ")
		title = m.styles.TaskSelected.Render(t.Title)
	}

	status := m.styles.StatusStyle(t.Status).Width(12).Render(t.Status.Display())
	mode := "sup"
	if t.IsAutonomous() {
		mode = "auto"
	}

	var meta []string
	if s := m.sessionFor(t.ID); s != nil && s.AgentStatus != "" {
		agent := string(s.AgentStatus)
		if s.StatusMessage != "" {
			agent += ": " + s.StatusMessage
		}
		meta = append(meta, agent)
	}
	if tokens := t.InputTokens + t.OutputTokens; tokens > 0 {
		meta = append(meta, formatTokens(tokens)+" tok")
	}
	if t.PRURL != "" {
		meta = append(meta, t.PRURL)
	}

	line := cursor +
		m.styles.TaskID.Render(fmt.Sprintf("#%d", t.ID)) +
		status + " " +
		m.styles.TaskMeta.Width(5).Render(mode) +
		title
	if len(meta) > 0 {
		line += "  " + m.styles.TaskMeta.Render(strings.Join(meta, " · "))
	}
	return line
}

func (m *Model) viewRateLimit() string {
	if m.overview == nil || m.overview.RateLimit == nil {
		return m.styles.GateOpen.Render("usage: unknown")
	}
	rl := m.overview.RateLimit
	usage := fmt.Sprintf("5h %.0f%%  7d %.0f%%", rl.FiveHourPct, rl.SevenDayPct)

	if rl.Limited(m.now()) {
		paused := "paused"
		if rl.Window != "" {
			paused += " (" + rl.Window + ")"
		}
		if rl.ResetsAt != nil {
			paused += " until " + rl.ResetsAt.Local().Format("15:04")
		}
		return m.styles.GateOpen.Render(usage) + "  " + m.styles.GateClosed.Render(paused)
	}
	return m.styles.GateOpen.Render(usage)
}

func (m *Model) viewFooter() string {
	var b strings.Builder
	switch {
	case m.mode == ModeConfirmDone:
		if t := m.SelectedTask(); t != nil {
			b.WriteString(m.styles.Notice.Render(fmt.Sprintf("Mark #%d %q done and tear down its session? [y/N]", t.ID, t.Title)))
			b.WriteString("\n")
		}
	case m.err != nil:
		b.WriteString(m.styles.ErrorMsg.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.notice != "":
		b.WriteString(m.styles.Notice.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return m.styles.Footer.Render(b.String())
}

func (m *Model) now() time.Time {
	if m.deps.Clock == nil {
		return time.Now()
	}
	return m.deps.Clock.Now()
}

func formatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
