// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// EntryCardViewModel is one row of the home page entry list.
type EntryCardViewModel struct {
	Date         string
	MoodLabel    string
	WeatherLabel string
	Excerpt      string
	Tint         string // CSS hex color
	Path         string
}

// OptionViewModel is one choice of a select box.
type OptionViewModel struct {
	Value    string
	Label    string
	Selected bool
}

// DayCellViewModel is one day of the month grid.
type DayCellViewModel struct {
	Day      int
	InMonth  bool
	HasEntry bool
	IsToday  bool
	Tint     string
	Path     string
}

// CalendarViewModel is a month grid with its pickers.
type CalendarViewModel struct {
	Title        string
	Headers      []string
	Weeks        [][]DayCellViewModel
	Years        []OptionViewModel
	Months       []OptionViewModel
	PreviousPath string
	NextPath     string
}

// HomeViewModel holds everything the home page renders.
type HomeViewModel struct {
	Entries  []EntryCardViewModel
	Calendar CalendarViewModel
	Today    string
	CSRF     string
}

// EditorViewModel holds the entry editor form state.
type EditorViewModel struct {
	Date           string
	Exists         bool
	Moods          []OptionViewModel
	Weathers       []OptionViewModel
	Content        string
	PreviewHTML    string // sanitized markdown rendering of Content
	ImagePath      string
	ImageURL       string
	Background     string
	Formats        []string
	Saved          bool
	BackupFailures []string
	Error          string
	CSRF           string
}

// LoginViewModel drives both the login and the set-password forms.
type LoginViewModel struct {
	SetPassword bool
	Error       string
	CSRF        string
}
