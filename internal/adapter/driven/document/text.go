// Package document implements the DocumentWriter port for the export
// formats: PDF via fpdf and a plain-text layout that can be parsed back.
package document

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// metaSeparator joins a metadata label to its value.
const metaSeparator = "： "

var _ driven.DocumentWriter = (*TextWriter)(nil)

// TextWriter renders the title, one line per metadata field, a blank line
// and then the body verbatim.
type TextWriter struct{}

func NewTextWriter() *TextWriter { return &TextWriter{} }

func (*TextWriter) Format() string      { return "txt" }
func (*TextWriter) Extension() string   { return "txt" }
func (*TextWriter) ContentType() string { return "text/plain; charset=utf-8" }

func (*TextWriter) Write(ctx context.Context, doc model.Document, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", doc.Title)
	for _, m := range doc.Meta {
		fmt.Fprintf(bw, "%s%s%s\n", m.Label, metaSeparator, m.Value)
	}
	bw.WriteString("\n")
	bw.WriteString(doc.Body)
	return bw.Flush()
}

// ParseText reads a document produced by TextWriter back into an entry. Only
// the date, mood, weather and content survive the round trip.
func ParseText(r io.Reader) (model.DiaryEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.DiaryEntry{}, err
	}

	header, body, ok := strings.Cut(string(data), "\n\n")
	if !ok || header != model.DocumentTitle {
		return model.DiaryEntry{}, &model.ValidationError{Msg: "missing document title"}
	}
	meta, content, ok := strings.Cut(body, "\n\n")
	if !ok {
		// Empty body: the metadata block ends the document.
		meta, content = strings.TrimSuffix(body, "\n"), ""
	}

	var entry model.DiaryEntry
	for _, line := range strings.Split(meta, "\n") {
		label, value, found := strings.Cut(line, metaSeparator)
		if !found {
			return model.DiaryEntry{}, &model.ValidationError{Msg: fmt.Sprintf("malformed metadata line %q", line)}
		}
		if value == model.UnsetPlaceholder {
			value = ""
		}
		switch label {
		case model.LabelDate:
			entry.Date, err = model.ParseDate(value)
		case model.LabelMood:
			entry.Mood, err = model.ParseMood(value)
		case model.LabelWeather:
			entry.Weather, err = model.ParseWeather(value)
		}
		if err != nil {
			return model.DiaryEntry{}, err
		}
	}
	if entry.Date.IsZero() {
		return model.DiaryEntry{}, &model.ValidationError{Field: "date", Msg: "document has no date"}
	}

	entry.Content = content
	return entry, nil
}
