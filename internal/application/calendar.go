package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

var (
	firstStorableDate = model.NewDate(1, time.January, 1)
	lastStorableDate  = model.NewDate(9999, time.December, 31)
)

// weekdayNames is indexed by time.Weekday (Sunday first).
var weekdayNames = [7]string{"日", "一", "二", "三", "四", "五", "六"}

// ParseWeekday accepts an English weekday name or its three-letter prefix.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Monday, &model.ValidationError{Field: "week_start", Msg: fmt.Sprintf("unknown weekday %q", s)}
}

// WeekdayHeaders returns the seven column headers starting at weekStart.
func WeekdayHeaders(weekStart time.Weekday) []string {
	headers := make([]string, 7)
	for i := range headers {
		headers[i] = weekdayNames[(int(weekStart)+i)%7]
	}
	return headers
}

// MonthGrid returns whole weeks covering year/month. Days before the 1st
// and after the last day come from the adjacent months with InMonth false.
func MonthGrid(year int, month time.Month, weekStart time.Weekday) []model.DayCell {
	first := model.NewDate(year, month, 1)
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	daysInMonth := model.NewDate(year, month+1, 0).Day

	total := offset + daysInMonth
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	start := first.AddDays(-offset)
	cells := make([]model.DayCell, total)
	for i := range cells {
		d := start.AddDays(i)
		cells[i] = model.DayCell{
			Date:    d,
			InMonth: d.Year == first.Year && d.Month == first.Month,
		}
	}
	return cells
}

// YearChoices returns the years offered by the year picker: two on either
// side of the current one.
func YearChoices(today model.Date) []int {
	years := make([]int, 0, 5)
	for y := today.Year - 2; y <= today.Year+2; y++ {
		years = append(years, y)
	}
	return years
}

// CalendarService builds month views annotated with stored entries.
type CalendarService struct {
	store     driven.EntryStore
	weekStart time.Weekday
}

// NewCalendarService creates a CalendarService whose weeks begin on weekStart.
func NewCalendarService(store driven.EntryStore, weekStart time.Weekday) *CalendarService {
	return &CalendarService{store: store, weekStart: weekStart}
}

// WeekStart returns the configured first day of the week.
func (s *CalendarService) WeekStart() time.Weekday {
	return s.weekStart
}

// Month returns the grid for year/month with HasEntry, Mood and Weather
// filled in for dates that have an entry.
func (s *CalendarService) Month(ctx context.Context, year, month int) (model.MonthView, error) {
	if month < 1 || month > 12 {
		return model.MonthView{}, &model.ValidationError{Field: "month", Msg: fmt.Sprintf("month %d out of range 1-12", month)}
	}
	if year < 1 || year > 9999 {
		return model.MonthView{}, &model.ValidationError{Field: "year", Msg: fmt.Sprintf("year %d out of range", year)}
	}

	cells := MonthGrid(year, time.Month(month), s.weekStart)
	from, to := cells[0].Date, cells[len(cells)-1].Date
	// Keys are four-digit years; padding cells past either end would not
	// sort within the range.
	if from.Before(firstStorableDate) {
		from = firstStorableDate
	}
	if to.After(lastStorableDate) {
		to = lastStorableDate
	}
	entries, err := s.store.ListRange(ctx, from, to)
	if err != nil {
		return model.MonthView{}, err
	}

	byDate := make(map[model.Date]model.DiaryEntry, len(entries))
	for _, e := range entries {
		byDate[e.Date] = e
	}
	for i := range cells {
		if e, ok := byDate[cells[i].Date]; ok {
			cells[i].HasEntry = true
			cells[i].Mood = e.Mood
			cells[i].Weather = e.Weather
		}
	}

	return model.MonthView{
		Year:     year,
		Month:    month,
		Headers:  WeekdayHeaders(s.weekStart),
		Cells:    cells,
		Previous: model.NewDate(year, time.Month(month)-1, 1),
		Next:     model.NewDate(year, time.Month(month)+1, 1),
	}, nil
}
