package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiaryEntry_Normalize(t *testing.T) {
	date := NewDate(2024, time.March, 1)

	tests := []struct {
		name        string
		entry       DiaryEntry
		wantMood    Mood
		wantWeather Weather
	}{
		{"unset", DiaryEntry{Date: date}, MoodUnset, WeatherUnset},
		{"codes", DiaryEntry{Date: date, Mood: MoodSad, Weather: WeatherRainy}, MoodSad, WeatherRainy},
		{"labels", DiaryEntry{Date: date, Mood: "😊 很棒", Weather: Weather(WeatherRainy.Label())}, MoodGreat, WeatherRainy},
		{"mixed case", DiaryEntry{Date: date, Mood: "GREAT", Weather: " Rainy "}, MoodGreat, WeatherRainy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.entry.Normalize()
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMood, got.Mood)
			assert.Equal(t, tt.wantWeather, got.Weather)
			assert.Equal(t, date, got.Date)
		})
	}
}

func TestDiaryEntry_NormalizeRejects(t *testing.T) {
	date := NewDate(2024, time.March, 1)

	for _, e := range []DiaryEntry{
		{},
		{Date: date, Mood: "meh"},
		{Date: date, Weather: "hail"},
	} {
		_, err := e.Normalize()
		assert.True(t, IsValidation(err), "%+v", e)
	}
}

func TestDiaryEntry_Excerpt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{"empty", "", 10, ""},
		{"blank lines skipped", "\n  \nfirst line\nsecond", 20, "first line"},
		{"short enough", "hello", 5, "hello"},
		{"cut by runes", "我的日記本很長", 3, "我的日…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiaryEntry{Content: tt.content}.Excerpt(tt.max))
		})
	}
}

func TestBackupText(t *testing.T) {
	e := DiaryEntry{Date: NewDate(2024, time.March, 1), Mood: MoodOkay, Content: "went for a walk"}

	assert.Equal(t, "Diary_2024-03-01.txt", BackupFileName(e.Date))
	assert.Equal(t, "2024-03-01\n🙂 普通\n(未選)\nwent for a walk", string(BackupText(e)))
}

func TestErrorHelpers(t *testing.T) {
	cause := errors.New("disk full")
	storage := fmt.Errorf("save: %w", &StorageError{Op: "insert", Err: cause})
	render := &RenderError{Op: "write pdf", Err: cause}
	validation := &ValidationError{Field: "mood", Msg: "unknown"}

	assert.True(t, IsStorage(storage))
	assert.ErrorIs(t, storage, cause)
	assert.EqualError(t, storage, "save: storage: insert: disk full")

	assert.True(t, IsRender(render))
	assert.ErrorIs(t, render, cause)

	assert.True(t, IsValidation(validation))
	assert.EqualError(t, validation, "mood: unknown")
	assert.EqualError(t, &ValidationError{Msg: "bare"}, "bare")

	assert.False(t, IsStorage(validation))
	assert.False(t, IsValidation(nil))
}

func TestMonthView_Weeks(t *testing.T) {
	cells := make([]DayCell, 35)
	weeks := MonthView{Cells: cells}.Weeks()
	assert.Len(t, weeks, 5)
	for _, w := range weeks {
		assert.Len(t, w, 7)
	}
	assert.Empty(t, MonthView{}.Weeks())
}

func TestCredentialState_String(t *testing.T) {
	assert.Equal(t, "set", CredentialSet.String())
	assert.Equal(t, "unset", CredentialUnset.String())
}
