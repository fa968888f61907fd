package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/huyangdroid/droidpanel/internal/droid"
	"github.com/huyangdroid/droidpanel/internal/logging"
)

// View implements tea.Model. The header must stay headerHeight lines tall
// since mouse hit-testing assumes the sticks start right below it.
func (m *Model) View() string {
	if m.quitting {
		return "Panel closed.\n"
	}

	snap := m.session.Snapshot()
	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render(snap.RobotName))
	if snap.FirmwareVersion != "" {
		sb.WriteString(statusStyle.Render(" firmware " + snap.FirmwareVersion))
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus(snap.Automatic, snap.LeftEye, snap.RightEye, snap.Monocle))
	sb.WriteString("\n\n")

	// Sticks and light preview
	gap := strings.Repeat(" ", stickGap)
	sticks := lipgloss.JoinHorizontal(lipgloss.Top,
		m.neckSurface.Render(), gap,
		m.bodySurface.Render(), gap,
		renderLEDs(m.led1, m.led2, snap.LightMode),
	)
	sb.WriteString(sticks)
	sb.WriteString("\n")
	sb.WriteString(renderStickLabel("Neck", m.neck.X(), m.neck.Y()))
	sb.WriteString(gap)
	sb.WriteString(renderStickLabel("Body", m.body.X(), m.body.Y()))
	sb.WriteString("\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	sb.WriteString(m.renderLogs())
	sb.WriteString("\n")

	return sb.String()
}

func (m *Model) renderStatus(automatic bool, left, right, monocle int) string {
	link := offlineStyle.Render("offline")
	if m.online {
		link = onlineStyle.Render("online")
	}
	mode := "MANUAL"
	if automatic {
		mode = "AUTOMATIC"
	}
	return link + statusStyle.Render(fmt.Sprintf("  %s  eyes %s/%s  monocle %d",
		mode, droid.EyeState(left), droid.EyeState(right), monocle))
}

func renderStickLabel(name string, x, y int) string {
	label := fmt.Sprintf("%s x=%4d y=%4d", name, x, y)
	return lipgloss.NewStyle().Width(stickCols).Render(label)
}

func renderLegend() string {
	var items []string
	for _, name := range seriesOrder {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func (m *Model) renderLogs() string {
	width := m.width - 4
	if width < 2*stickCols+stickGap {
		width = 2*stickCols + stickGap
	}
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(width)

	var lines []string
	if m.buffer != nil {
		for _, entry := range m.buffer.Tail(maxLogs) {
			lines = append(lines, logging.FormatLogLine(entry))
		}
	}
	if len(lines) == 0 {
		return logStyle.Render(statusStyle.Render("Drag the sticks with the mouse. 0-5 lights, a automatic, e eyes, [ ] monocle, r refresh, q quit"))
	}
	return logStyle.Render(strings.Join(lines, "\n"))
}
