package model

import (
	"fmt"
	"strings"
)

// Mood is the closed set of mood tags an entry can carry. The zero value
// means no mood was chosen.
type Mood string

const (
	MoodUnset    Mood = ""
	MoodGreat    Mood = "great"
	MoodOkay     Mood = "okay"
	MoodSuper    Mood = "super"
	MoodSad      Mood = "sad"
	MoodExploded Mood = "exploded"
)

// Moods lists every selectable mood in display order.
var Moods = []Mood{MoodGreat, MoodOkay, MoodSuper, MoodSad, MoodExploded}

var moodLabels = map[Mood]string{
	MoodGreat:    "😊 很棒",
	MoodOkay:     "🙂 普通",
	MoodSuper:    "😀 超好",
	MoodSad:      "😕 難過",
	MoodExploded: "🤯 爆炸了",
}

// Label returns the emoji-prefixed display label, or "" when unset.
func (m Mood) Label() string {
	return moodLabels[m]
}

// IsSet reports whether a mood was chosen.
func (m Mood) IsSet() bool {
	return m != MoodUnset
}

// ParseMood accepts a mood code ("great") or its display label ("😊 很棒").
// An empty string yields MoodUnset.
func ParseMood(s string) (Mood, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MoodUnset, nil
	}
	for _, m := range Moods {
		if strings.EqualFold(s, string(m)) || s == m.Label() {
			return m, nil
		}
	}
	return MoodUnset, &ValidationError{Field: "mood", Msg: fmt.Sprintf("unknown mood %q", s)}
}

// Weather is the closed set of weather tags an entry can carry. The zero
// value means no weather was chosen.
type Weather string

const (
	WeatherUnset  Weather = ""
	WeatherSunny  Weather = "sunny"
	WeatherCloudy Weather = "cloudy"
	WeatherRainy  Weather = "rainy"
	WeatherStormy Weather = "stormy"
	WeatherSnowy  Weather = "snowy"
)

// Weathers lists every selectable weather in display order.
var Weathers = []Weather{WeatherSunny, WeatherCloudy, WeatherRainy, WeatherStormy, WeatherSnowy}

var weatherLabels = map[Weather]string{
	WeatherSunny:  "☀️ 晴朗",
	WeatherCloudy: "⛅ 多雲",
	WeatherRainy:  "🌧 下雨",
	WeatherStormy: "⛈ 雷雨",
	WeatherSnowy:  "❄️ 下雪",
}

// Label returns the emoji-prefixed display label, or "" when unset.
func (w Weather) Label() string {
	return weatherLabels[w]
}

// IsSet reports whether a weather was chosen.
func (w Weather) IsSet() bool {
	return w != WeatherUnset
}

// ParseWeather accepts a weather code ("sunny") or its display label ("☀️ 晴朗").
// An empty string yields WeatherUnset.
func ParseWeather(s string) (Weather, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WeatherUnset, nil
	}
	for _, w := range Weathers {
		if strings.EqualFold(s, string(w)) || s == w.Label() {
			return w, nil
		}
	}
	return WeatherUnset, &ValidationError{Field: "weather", Msg: fmt.Sprintf("unknown weather %q", s)}
}
