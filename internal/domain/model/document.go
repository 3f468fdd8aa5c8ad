package model

// Document titles and metadata labels used by every rendered format.
const (
	DocumentTitle    = "📔 我的日記本"
	LabelDate        = "📅 日期"
	LabelMood        = "😊 心情"
	LabelWeather     = "🌦 天氣"
	UnsetPlaceholder = "(未選)"
)

// MetaLine is one "label: value" row of a document's metadata block.
type MetaLine struct {
	Label string
	Value string
}

// Document is the format-independent layout of a rendered entry.
type Document struct {
	Title      string
	Date       Date
	Mood       Mood
	Weather    Weather
	Meta       []MetaLine
	Body       string
	ImagePath  string // Local filesystem path; empty when no image will be drawn.
	Background RGB
}
