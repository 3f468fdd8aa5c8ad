package web

import (
	"fmt"
	"net/url"
	"strconv"

	vm "github.com/ericfisherdev/mydiary/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

const excerptRunes = 60

func toEntryCards(entries []model.DiaryEntry) []vm.EntryCardViewModel {
	cards := make([]vm.EntryCardViewModel, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, vm.EntryCardViewModel{
			Date:         e.Date.String(),
			MoodLabel:    labelOrPlaceholder(e.Mood.Label()),
			WeatherLabel: labelOrPlaceholder(e.Weather.Label()),
			Excerpt:      e.Excerpt(excerptRunes),
			Tint:         model.CardTint(e.Mood, e.Weather).Hex(),
			Path:         entryPath(e.Date),
		})
	}
	return cards
}

func toCalendarViewModel(view model.MonthView, today model.Date) vm.CalendarViewModel {
	weeks := view.Weeks()
	out := vm.CalendarViewModel{
		Title:        fmt.Sprintf("%d 年 %d 月", view.Year, view.Month),
		Headers:      view.Headers,
		Weeks:        make([][]vm.DayCellViewModel, 0, len(weeks)),
		PreviousPath: calendarPath(view.Previous.Year, int(view.Previous.Month)),
		NextPath:     calendarPath(view.Next.Year, int(view.Next.Month)),
	}

	for _, week := range weeks {
		row := make([]vm.DayCellViewModel, 0, len(week))
		for _, c := range week {
			row = append(row, vm.DayCellViewModel{
				Day:      c.Date.Day,
				InMonth:  c.InMonth,
				HasEntry: c.HasEntry,
				IsToday:  c.Date == today,
				Tint:     model.CardTint(c.Mood, c.Weather).Hex(),
				Path:     entryPath(c.Date),
			})
		}
		out.Weeks = append(out.Weeks, row)
	}

	years := application.YearChoices(today)
	switch {
	case view.Year < years[0]:
		years = append([]int{view.Year}, years...)
	case view.Year > years[len(years)-1]:
		years = append(years, view.Year)
	}
	for _, y := range years {
		out.Years = append(out.Years, vm.OptionViewModel{
			Value:    strconv.Itoa(y),
			Label:    strconv.Itoa(y),
			Selected: y == view.Year,
		})
	}
	for m := 1; m <= 12; m++ {
		out.Months = append(out.Months, vm.OptionViewModel{
			Value:    strconv.Itoa(m),
			Label:    fmt.Sprintf("%d 月", m),
			Selected: m == view.Month,
		})
	}
	return out
}

func moodOptions(selected model.Mood) []vm.OptionViewModel {
	opts := make([]vm.OptionViewModel, 0, len(model.Moods))
	for _, m := range model.Moods {
		opts = append(opts, vm.OptionViewModel{Value: string(m), Label: m.Label(), Selected: m == selected})
	}
	return opts
}

func weatherOptions(selected model.Weather) []vm.OptionViewModel {
	opts := make([]vm.OptionViewModel, 0, len(model.Weathers))
	for _, w := range model.Weathers {
		opts = append(opts, vm.OptionViewModel{Value: string(w), Label: w.Label(), Selected: w == selected})
	}
	return opts
}

func backupFailureNames(failures []application.BackupFailure) []string {
	if len(failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Sink)
	}
	return names
}

func labelOrPlaceholder(label string) string {
	if label == "" {
		return model.UnsetPlaceholder
	}
	return label
}

func entryPath(d model.Date) string {
	return "/app/entries/" + d.String()
}

func calendarPath(year, month int) string {
	return fmt.Sprintf("/app/calendar?year=%d&month=%d", year, month)
}

func attachmentPath(ref string) string {
	return "/app/attachments?ref=" + url.QueryEscape(ref)
}
