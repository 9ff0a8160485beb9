package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"questsync/internal/engine"
)

// maxEventLines caps how many events of the last cycle the dashboard shows.
const maxEventLines = 8

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderCycleState())
	b.WriteString("\n")

	if m.outcome != nil {
		b.WriteString(m.renderCounts())
		b.WriteString("\n")
		if events := m.renderEvents(); events != "" {
			b.WriteString(events)
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderStatusBar())

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

// renderHeader renders the application header.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("questsync watch")
	version := ""
	if m.version != "" {
		version = " " + SubtitleStyle.Render("v"+m.version)
	}
	subtitle := SubtitleStyle.Render("Reconciling origin tasks with their mirrors")

	return title + version + "\n" + subtitle
}

// renderCycleState renders the line describing the running or last cycle.
func (m Model) renderCycleState() string {
	if m.syncing {
		return m.spinner.View() + " Running cycle..."
	}

	var b strings.Builder
	if m.err != nil {
		b.WriteString(ErrorStyle.Render("Last cycle failed: " + m.err.Error()))
		if m.outcome != nil {
			b.WriteString("\n")
		}
	}

	if m.outcome == nil {
		if m.err == nil {
			return DimStyle.Render("No cycle has run yet")
		}
		return b.String()
	}

	badge := SuccessStyle.Render(IndicatorSuccess + " success")
	if !m.outcome.Success {
		badge = WarningStyle.Render(IndicatorDegraded + " degraded")
	}
	took := m.outcome.Duration.Round(time.Millisecond).String()
	b.WriteString("Last cycle " + badge + "  " +
		DimStyle.Render(formatAge(m.outcome.Started)+" in "+took))

	return b.String()
}

// renderCounts renders the box of per-cycle counters.
func (m Model) renderCounts() string {
	o := m.outcome

	var b strings.Builder
	b.WriteString(m.renderDetailRow("Origin due:", fmt.Sprintf("%d", o.OriginTasks)))
	b.WriteString(m.renderDetailRow("Mirror todos:", fmt.Sprintf("%d", o.MirrorTasks)))
	b.WriteString("\n")
	b.WriteString(m.renderDetailRow("Created:", styledCount(o.Created, SuccessStyle)))
	b.WriteString(m.renderDetailRow("Completed:", styledCount(o.Completed, SuccessStyle)))
	b.WriteString(m.renderDetailRow("Closed:", styledCount(o.Closed, StatusMsgStyle)))
	b.WriteString(m.renderDetailRow("Deleted:", styledCount(o.Deleted, WarningStyle)))
	b.WriteString(m.renderDetailRow("Failed:", styledCount(o.Failed, ErrorStyle)))
	b.WriteString(m.renderDetailRow("Skipped:", fmt.Sprintf("%d", o.Skipped)))

	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// styledCount colors a counter only when it is non-zero.
func styledCount(n int, style lipgloss.Style) string {
	s := fmt.Sprintf("%d", n)
	if n == 0 {
		return s
	}
	return style.Render(s)
}

// renderEvents renders the tail of the last cycle's event log.
func (m Model) renderEvents() string {
	events := m.outcome.Events
	if len(events) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(DimStyle.Bold(true).Render(fmt.Sprintf("Events (%d)", len(events))))
	b.WriteString("\n")

	start := 0
	if len(events) > maxEventLines {
		start = len(events) - maxEventLines
		b.WriteString(DimStyle.Render(fmt.Sprintf("... %d earlier", start)))
		b.WriteString("\n")
	}
	for _, ev := range events[start:] {
		b.WriteString(renderEvent(ev))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderEvent renders a single event line.
func renderEvent(ev engine.Event) string {
	label := actionStyle(ev.Action).Render(fmt.Sprintf("%-9s", string(ev.Action)))

	text := ev.Text
	if len(text) > 40 {
		text = text[:37] + "..."
	}

	ids := ev.OriginID
	if ev.MirrorID != "" {
		if ids != "" {
			ids += " / "
		}
		ids += ev.MirrorID
	}

	line := label + text
	if ids != "" {
		line += " " + DimStyle.Render("("+ids+")")
	}
	if ev.Error != "" {
		line += " " + ErrorStyle.Render(ev.Error)
	}
	return line
}

// actionStyle picks the color for an event's action label.
func actionStyle(a engine.Action) lipgloss.Style {
	switch a {
	case engine.ActionCreate, engine.ActionComplete:
		return SuccessStyle
	case engine.ActionClose:
		return StatusMsgStyle
	case engine.ActionDelete:
		return WarningStyle
	}
	return DimStyle
}

// renderDetailRow renders a label: value row.
func (m Model) renderDetailRow(label, value string) string {
	labelStyle := DimStyle.Width(14)
	return labelStyle.Render(label) + value + "\n"
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	next := ""
	switch {
	case m.syncing:
		next = DimStyle.Render("cycle in progress")
	case !m.nextRun.IsZero():
		remaining := time.Until(m.nextRun).Round(time.Second)
		if remaining < 0 {
			remaining = 0
		}
		next = DimStyle.Render("next cycle in " + remaining.String())
	}

	help := []string{
		HelpKeyStyle.Render("r") + " run now",
		HelpKeyStyle.Render("q") + " quit",
	}
	helpLine := DimStyle.Render(strings.Join(help, "  "))

	// Separator
	sep := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(ColorGray).
		PaddingTop(1)

	// Calculate spacing using visible width, not byte length
	nextWidth := lipgloss.Width(next)
	spacing := 28 - nextWidth
	if spacing < 2 {
		spacing = 2
	}

	var b strings.Builder
	if m.statusMessage != "" {
		b.WriteString(StatusMsgStyle.Render(m.statusMessage))
		b.WriteString("\n")
	}
	b.WriteString(next)
	b.WriteString(strings.Repeat(" ", spacing))
	b.WriteString(helpLine)

	return sep.Render(b.String())
}

// formatAge formats a time as a human-readable age string.
func formatAge(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
