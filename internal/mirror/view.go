package mirror

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"btnow/internal/playback"
)

var (
	filledBlock = "▓"
	emptyBlock  = "░"

	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.snapshot == nil {
		return "\n  " + m.spinner.View() + " Waiting for player..."
	}

	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.pal.Accent)).Bold(true)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + accentStyle.Render(truncate(m.snapshot.Title, m.width-4)))
	b.WriteString("\n")

	artistLine := m.snapshot.Artist
	if m.snapshot.Album != "" {
		artistLine += " — " + m.snapshot.Album
	}
	b.WriteString("  " + subtleStyle.Render(truncate(artistLine, m.width-4)))
	b.WriteString("\n\n")

	position := m.anchor.Position()
	playing := m.anchor.Status() == playback.StatusPlaying
	b.WriteString("  " + renderProgressBar(position, m.snapshot.Duration, m.width-4, playing))
	b.WriteString("\n\n")

	lyricHeight := m.height - lipgloss.Height(b.String()) - 2
	b.WriteString(m.renderLyrics(lyricHeight, accentStyle))
	b.WriteString("\n")
	b.WriteString("  " + subtleStyle.Render(m.footer()))

	return b.String()
}

// renderProgressBar renders a block-style progress bar.
// Format: ▶  1:23  ▓▓▓▓▓░░░░░  4:56
func renderProgressBar(position, duration time.Duration, width int, playing bool) string {
	status := "▶"
	if !playing {
		status = "⏸"
	}

	posStr := formatDuration(position)
	durStr := formatDuration(duration)

	fixedWidth := lipgloss.Width(status) + 2 + lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixedWidth

	if barWidth < 3 {
		// Too narrow for bar, just show times
		return status + "  " + posStr + " / " + durStr
	}

	var ratio float64
	if duration > 0 {
		ratio = float64(position) / float64(duration)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)

	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, barWidth-filled)

	return status + "  " + posStr + "  " + bar + "  " + durStr
}

// renderLyrics shows a window of lyric lines with the active one
// centered and highlighted. Plain lyrics scroll from the top; absence
// gets a placeholder once the lookup has actually finished.
func (m Model) renderLyrics(height int, accentStyle lipgloss.Style) string {
	if height < 1 {
		return ""
	}

	switch {
	case len(m.timeline.Lines) > 0:
		return m.renderSyncedLyrics(height, accentStyle)
	case len(m.plain) > 0:
		return m.renderPlainLyrics(height)
	case m.hasLyric:
		return "  " + subtleStyle.Render("Lyric not found") + strings.Repeat("\n", height-1)
	default:
		return "  " + subtleStyle.Render(m.spinner.View()+" looking for lyrics") + strings.Repeat("\n", height-1)
	}
}

func (m Model) renderSyncedLyrics(height int, accentStyle lipgloss.Style) string {
	lines := m.timeline.Lines
	current := m.tracker.Current()

	// Center the active line, clamped to the timeline edges.
	start := current - height/2
	start = max(0, min(start, len(lines)-height))
	end := min(start+height, len(lines))

	out := make([]string, 0, height)
	for i := start; i < end; i++ {
		text := truncate(lines[i].Text, m.width-6)
		if i == current {
			out = append(out, "  "+accentStyle.Render("▶ "+text))
		} else {
			out = append(out, "    "+subtleStyle.Render(text))
		}
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func (m Model) renderPlainLyrics(height int) string {
	out := make([]string, 0, height)
	for i := 0; i < height && i < len(m.plain); i++ {
		out = append(out, "    "+subtleStyle.Render(truncate(m.plain[i], m.width-6)))
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func (m Model) footer() string {
	parts := []string{}

	if last := m.store.LastUpdate(); !last.IsZero() {
		parts = append(parts, "updated "+humanize.Time(last))
	}
	if m.lastErr != "" {
		parts = append(parts, errorStyle.Render(truncate(m.lastErr, m.width/2)))
	}
	parts = append(parts, "q quit")

	return strings.Join(parts, " · ")
}

// truncate shortens a string to fit maxWidth, wide characters included.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// formatDuration formats a duration as mm:ss.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
