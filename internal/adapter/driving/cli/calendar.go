package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

func (a *app) calendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [year] [month]",
		Short: "Show a month with written days tinted (default this month)",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			today := model.DateOf(a.Now())
			year, month := today.Year, int(today.Month)

			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid year %q", args[0])
				}
				year = n
			}
			if len(args) > 1 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid month %q", args[1])
				}
				month = n
			}

			view, err := a.Calendar.Month(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderMonth(view, today))
			return nil
		},
	}
}

func renderMonth(view model.MonthView, today model.Date) string {
	var b strings.Builder

	title := fmt.Sprintf("%d 年 %d 月", view.Year, view.Month)
	b.WriteString(lipgloss.PlaceHorizontal(7*4, lipgloss.Center, titleStyle.Render(title)))
	b.WriteString("\n")

	headers := make([]string, len(view.Headers))
	for i, h := range view.Headers {
		headers[i] = headerStyle.Render(h)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")

	for _, week := range view.Weeks() {
		cells := make([]string, len(week))
		for i, c := range week {
			cells[i] = renderDay(c, today)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

func renderDay(c model.DayCell, today model.Date) string {
	style := dayStyle
	switch {
	case !c.InMonth:
		style = style.Foreground(lipgloss.Color("#BBBBBB"))
	case c.HasEntry:
		style = style.
			Background(lipgloss.Color(model.CardTint(c.Mood, c.Weather).Hex())).
			Foreground(lipgloss.Color("#333333"))
	}
	if c.Date == today {
		style = style.Bold(true).Underline(true)
	}
	return style.Render(strconv.Itoa(c.Date.Day))
}
