package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/color"
	"github.com/tilawa-cli/tilawa/icon"
	"github.com/tilawa-cli/tilawa/playback"
	"github.com/tilawa-cli/tilawa/style"
	"github.com/tilawa-cli/tilawa/util"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (m *model) View() string {
	if !m.snapshot.Visible && m.snapshot.State != playback.Idle {
		return m.viewHidden()
	}

	if m.expanded {
		return m.viewExpanded()
	}
	return m.viewCompact()
}

func stateIcon(s playback.State) string {
	switch s {
	case playback.Playing:
		return style.Fg(style.SuccessColor)(icon.Get(icon.Playing))
	case playback.Paused:
		return style.Fg(style.WarningColor)(icon.Get(icon.Paused))
	case playback.Resolving:
		return style.Fg(style.AccentColor)(icon.Get(icon.Resolving))
	case playback.Failed:
		return style.Fg(style.ErrorColor)(icon.Get(icon.Fail))
	default:
		return style.Fg(style.FaintColor)(icon.Get(icon.Stopped))
	}
}

func (m *model) title() string {
	if t, ok := m.snapshot.Track.Get(); ok {
		return t.String()
	}
	return "Nothing playing"
}

func (m *model) clock() string {
	if m.snapshot.Duration > 0 {
		return fmt.Sprintf("%s / %s", util.FormatSeconds(m.snapshot.Position), util.FormatSeconds(m.snapshot.Duration))
	}
	return util.FormatSeconds(m.snapshot.Position)
}

func (m *model) volume() string {
	return fmt.Sprintf("%s %3d%%", icon.Get(icon.Volume), int(m.snapshot.Volume*100+0.5))
}

// status is the one-line summary shared by the compact and hidden layouts.
func (m *model) status() string {
	parts := []string{stateIcon(m.snapshot.State), style.Bold(m.title())}

	switch m.snapshot.State {
	case playback.Resolving:
		parts = append(parts, m.spinnerC.View()+" "+style.Faint(fmt.Sprintf("finding a mirror (%s tried)", util.Quantify(len(m.snapshot.Attempts), "mirror", "mirrors"))))
	case playback.Failed:
		parts = append(parts, style.Fg(color.Red)(m.snapshot.Message()))
	case playback.Playing, playback.Paused, playback.Stopped:
		parts = append(parts, m.clock(), m.volume())
	}

	line := strings.Join(parts, "  ")
	if m.width > 0 {
		line = truncate.StringWithTail(line, uint(m.width), "…")
	}
	return line
}

func (m *model) viewCompact() string {
	return m.renderLines(true, []string{m.status()})
}

func (m *model) viewHidden() string {
	return style.Faint(icon.Get(icon.Hidden) + " " + m.status())
}

func (m *model) viewExpanded() string {
	snap := m.snapshot
	banner := style.Title
	if snap.State == playback.Failed {
		banner = style.ErrorTitle
	}

	lines := []string{
		banner(strings.ToUpper(snap.State.String())),
		"",
		style.Fg(color.Purple)(m.title()),
	}

	if t, ok := snap.Track.Get(); ok {
		lines = append(lines, style.Faint(t.Provider))
	}
	lines = append(lines, "")

	switch snap.State {
	case playback.Resolving:
		lines = append(lines, m.spinnerC.View()+" Finding a working mirror")
		lines = append(lines, m.attempts()...)
	case playback.Failed:
		lines = append(lines, icon.Get(icon.Fail)+" "+style.Fg(color.Red)(snap.Message()))
		lines = append(lines, m.attempts()...)
	case playback.Playing, playback.Paused, playback.Stopped:
		percent := 0.0
		if snap.Duration > 0 {
			percent = snap.Position / snap.Duration
		}
		lines = append(lines,
			m.progressC.ViewAs(percent)+"  "+m.clock(),
			"",
			m.volume(),
			style.Faint(icon.Get(icon.Mirror)+" "+snap.Source+"  "+snap.Locator),
		)
	}

	if m.lastErr != nil {
		lines = append(lines, "", style.Fg(color.Yellow)(wrap.String(m.lastErr.Error(), max(m.width, 20))))
	}

	return m.renderLines(true, lines)
}

func (m *model) attempts() []string {
	return lo.Map(m.snapshot.Attempts, func(a cascade.Attempt, _ int) string {
		mark := style.Fg(color.Red)("✗")
		if a.Outcome == cascade.Success {
			mark = style.Fg(color.Green)("✓")
		}
		return style.Faint(fmt.Sprintf("  %s %s  %s", mark, a.Provider, a.Outcome))
	})
}

func (m *model) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if m.expanded && m.height > h+4 {
			l += strings.Repeat("\n", m.height-h-4)
		}
		l += "\n\n" + m.helpC.View(m.keymap)
	}

	return paddingStyle.Render(l)
}
