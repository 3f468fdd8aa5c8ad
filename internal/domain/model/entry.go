package model

import (
	"strings"
	"time"
)

// DiaryEntry is the single diary record for one calendar date.
type DiaryEntry struct {
	Date      Date
	Mood      Mood
	Weather   Weather
	Content   string
	ImagePath string // Empty when no image is attached.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasImage reports whether an image reference is attached.
func (e DiaryEntry) HasImage() bool {
	return e.ImagePath != ""
}

// Normalize checks the fields a store relies on and returns the entry with
// its mood and weather rewritten to their canonical codes, so labels and
// mixed-case codes never reach storage.
func (e DiaryEntry) Normalize() (DiaryEntry, error) {
	if e.Date.IsZero() {
		return DiaryEntry{}, &ValidationError{Field: "date", Msg: "date is required"}
	}
	mood, err := ParseMood(string(e.Mood))
	if err != nil {
		return DiaryEntry{}, err
	}
	weather, err := ParseWeather(string(e.Weather))
	if err != nil {
		return DiaryEntry{}, err
	}
	e.Mood = mood
	e.Weather = weather
	return e, nil
}

// Excerpt returns the first non-blank line of the content, cut to at most
// max runes with a trailing ellipsis when shortened.
func (e DiaryEntry) Excerpt(max int) string {
	for _, line := range strings.Split(e.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) <= max {
			return line
		}
		return string(runes[:max]) + "…"
	}
	return ""
}
