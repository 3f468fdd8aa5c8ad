package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#404040"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E65100"))
	headerStyle = lipgloss.NewStyle().Bold(true).Width(4).Align(lipgloss.Center)
	dayStyle    = lipgloss.NewStyle().Width(4).Align(lipgloss.Center)
)

// tinted paints s on c with dark text.
func tinted(c model.RGB, s string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Foreground(lipgloss.Color("#333333")).
		Render(s)
}

func tagLine(e model.DiaryEntry) string {
	return fmt.Sprintf("%s %s  %s %s  %s %s",
		model.LabelDate, e.Date,
		model.LabelMood, orPlaceholder(e.Mood.Label()),
		model.LabelWeather, orPlaceholder(e.Weather.Label()))
}

func orPlaceholder(label string) string {
	if label == "" {
		return model.UnsetPlaceholder
	}
	return label
}

// renderBody renders markdown for the terminal. style is a glamour standard
// style name; "" picks one from the terminal background.
func renderBody(body, style string, width int) (string, error) {
	if strings.TrimSpace(body) == "" {
		return mutedStyle.Render("(空白)") + "\n", nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(body)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
