package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/blinkforge/internal/blink"
	"github.com/mrsinham/blinkforge/internal/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// renderHelp renders the help panel for a field key.
func renderHelp(key string, width int) string {
	style := panelStyle.Width(max(width-4, 40))

	text, ok := Texts[key]
	if !ok {
		return style.Render("Select a field to see help")
	}

	var sb strings.Builder
	sb.WriteString(helpTitleStyle.Render(text.Title))
	sb.WriteString("\n\n")
	sb.WriteString(valueStyle.Render(text.Description))
	if text.Details != "" {
		sb.WriteString("\n\n")
		sb.WriteString(labelStyle.Render(text.Details))
	}
	return style.Render(sb.String())
}

// renderSummary lays out the resolved plan of a configuration.
func renderSummary(cfg *config.Config, s *State) string {
	blinks := cfg.ExpectedBlinks()
	plan := blink.Schedule(cfg.Frames, blinks)

	seed := s.Seed
	if cfg.Seed == 0 {
		seed = "derived from output path"
	}

	rows := [][2]string{
		{"Frames", fmt.Sprintf("%d", cfg.Frames)},
		{"Blinks per frame", s.BlinksPerFrame},
		{"Events", fmt.Sprintf("%d", plan.Blinks)},
		{"Cadence", fmt.Sprintf("1 event every %d frames", plan.FramesPerBlink)},
		{"Particle", fmt.Sprintf("r=%g nm at (%g, %g)", cfg.Particle.Radius, cfg.Particle.CenterX, cfg.Particle.CenterY)},
		{"Seed", seed},
		{"Output", s.Output},
		{"Formats", strings.Join(s.Formats, ", ")},
	}

	var sb strings.Builder
	sb.WriteString(helpTitleStyle.Render("Simulation"))
	sb.WriteString("\n\n")
	for _, r := range rows {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-18s", r[0])))
		sb.WriteString(valueStyle.Render(r[1]))
		sb.WriteString("\n")
	}
	return panelStyle.Render(strings.TrimSuffix(sb.String(), "\n"))
}
