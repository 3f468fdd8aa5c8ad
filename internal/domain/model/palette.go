package model

import "fmt"

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// White is the fallback background for any untagged or unmapped entry.
var White = RGB{255, 255, 255}

// Hex returns the color as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

type tagPair struct {
	mood    Mood
	weather Weather
}

var pageBackgrounds = map[tagPair]RGB{
	{MoodGreat, WeatherSunny}:     {255, 248, 225},
	{MoodOkay, WeatherCloudy}:     {232, 240, 254},
	{MoodSuper, WeatherSunny}:     {255, 253, 231},
	{MoodSad, WeatherRainy}:       {236, 240, 241},
	{MoodExploded, WeatherStormy}: {255, 235, 238},
}

// PageBackground returns the page fill for an exported document. Only exact
// (mood, weather) pairs are mapped; every other combination, including unset
// tags, is White.
func PageBackground(m Mood, w Weather) RGB {
	if c, ok := pageBackgrounds[tagPair{m, w}]; ok {
		return c
	}
	return White
}

// CardTint returns the on-screen tint of an entry card. Two exact pairs take
// priority, then a few moods tint regardless of weather.
func CardTint(m Mood, w Weather) RGB {
	switch {
	case m == MoodGreat && w == WeatherSunny:
		return RGB{0xFF, 0xFD, 0xE7}
	case m == MoodOkay && w == WeatherCloudy:
		return RGB{0xE8, 0xF0, 0xFE}
	case m == MoodSuper:
		return RGB{0xE0, 0xF7, 0xFA}
	case m == MoodSad:
		return RGB{0xF3, 0xE5, 0xF5}
	case m == MoodExploded:
		return RGB{0xF8, 0xD7, 0xDA}
	}
	return White
}
