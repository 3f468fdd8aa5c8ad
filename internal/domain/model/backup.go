package model

import "strings"

// BackupFileName returns the companion backup file name for a date.
func BackupFileName(d Date) string {
	return "Diary_" + d.String() + ".txt"
}

// BackupText formats an entry as the plain-text companion backup: date,
// mood label, weather label, then the content.
func BackupText(e DiaryEntry) []byte {
	var b strings.Builder
	b.WriteString(e.Date.String())
	b.WriteByte('\n')
	b.WriteString(labelOrPlaceholder(e.Mood.Label()))
	b.WriteByte('\n')
	b.WriteString(labelOrPlaceholder(e.Weather.Label()))
	b.WriteByte('\n')
	b.WriteString(e.Content)
	return []byte(b.String())
}

func labelOrPlaceholder(label string) string {
	if label == "" {
		return UnsetPlaceholder
	}
	return label
}
