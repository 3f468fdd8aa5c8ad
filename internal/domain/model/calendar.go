package model

// DayCell is one slot of a month grid.
type DayCell struct {
	Date     Date
	InMonth  bool // False for leading/trailing days borrowed from adjacent months.
	HasEntry bool
	Mood     Mood
	Weather  Weather
}

// MonthView is a month grid ready for display.
type MonthView struct {
	Year     int
	Month    int
	Headers  []string
	Cells    []DayCell
	Previous Date // First day of the previous month.
	Next     Date // First day of the next month.
}

// Weeks splits the cells into rows of seven.
func (v MonthView) Weeks() [][]DayCell {
	weeks := make([][]DayCell, 0, len(v.Cells)/7)
	for i := 0; i+7 <= len(v.Cells); i += 7 {
		weeks = append(weeks, v.Cells[i:i+7])
	}
	return weeks
}
