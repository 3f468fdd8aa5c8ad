package application

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

func TestCompose(t *testing.T) {
	entry := model.DiaryEntry{
		Date:    model.NewDate(2024, time.March, 1),
		Mood:    model.MoodGreat,
		Weather: model.WeatherSunny,
		Content: "sunny walk",
	}

	doc := Compose(entry, "/tmp/img.png")

	assert.Equal(t, model.DocumentTitle, doc.Title)
	assert.Equal(t, []model.MetaLine{
		{Label: model.LabelDate, Value: "2024-03-01"},
		{Label: model.LabelMood, Value: "😊 很棒"},
		{Label: model.LabelWeather, Value: "☀️ 晴朗"},
	}, doc.Meta)
	assert.Equal(t, "sunny walk", doc.Body)
	assert.Equal(t, "/tmp/img.png", doc.ImagePath)
	assert.Equal(t, model.RGB{R: 255, G: 248, B: 225}, doc.Background)

	blank := Compose(model.DiaryEntry{Date: entry.Date}, "")
	assert.Equal(t, model.UnsetPlaceholder, blank.Meta[1].Value)
	assert.Equal(t, model.UnsetPlaceholder, blank.Meta[2].Value)
	assert.Equal(t, model.White, blank.Background)
}

func TestDocumentFileName(t *testing.T) {
	assert.Equal(t, "Diary_2024-03-01.pdf", DocumentFileName(model.NewDate(2024, time.March, 1), "pdf"))
}

func TestRenderer_Writers(t *testing.T) {
	r := NewRenderer(nil, discardLogger(), &fakeWriter{format: "txt"}, &fakeWriter{format: "pdf"})

	assert.Equal(t, []string{"pdf", "txt"}, r.Formats())

	w, err := r.Writer("PDF")
	require.NoError(t, err)
	assert.Equal(t, "pdf", w.Format())

	_, err = r.Writer("docx")
	assert.True(t, model.IsValidation(err))
}

func TestRenderer_ImageResolution(t *testing.T) {
	ctx := context.Background()
	existing := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(existing, []byte("png"), 0o600))

	tests := []struct {
		name        string
		ref         string
		attachments *fakeAttachments
		wantImage   string
	}{
		{"no image", "", &fakeAttachments{}, ""},
		{"owned ref", "mem://1", &fakeAttachments{localPath: "/cache/1.png"}, "/cache/1.png"},
		{"owned ref unavailable", "mem://1", &fakeAttachments{localErr: errors.New("gone")}, ""},
		{"plain local path", existing, &fakeAttachments{}, existing},
		{"missing local path", filepath.Join(t.TempDir(), "nope.png"), &fakeAttachments{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{format: "txt"}
			r := NewRenderer(tt.attachments, discardLogger(), w)
			entry := model.DiaryEntry{Date: model.NewDate(2024, time.March, 1), ImagePath: tt.ref}

			var buf bytes.Buffer
			require.NoError(t, r.Render(ctx, entry, "txt", &buf))

			assert.Equal(t, tt.wantImage, w.last.ImagePath)
		})
	}
}

func TestRenderer_CleansUpLocalCopy(t *testing.T) {
	attachments := &fakeAttachments{localPath: "/cache/1.png"}
	r := NewRenderer(attachments, discardLogger(), &fakeWriter{format: "txt"})

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), model.DiaryEntry{Date: model.NewDate(2024, time.March, 1), ImagePath: "mem://1"}, "txt", &buf))

	assert.True(t, attachments.cleaned)
}

func TestRenderer_WriterFailureIsRenderError(t *testing.T) {
	r := NewRenderer(nil, discardLogger(), &fakeWriter{format: "txt", err: errors.New("boom")})

	var buf bytes.Buffer
	err := r.Render(context.Background(), model.DiaryEntry{Date: model.NewDate(2024, time.March, 1)}, "txt", &buf)

	assert.True(t, model.IsRender(err))
	assert.ErrorContains(t, err, "boom")
}

func TestExportService_Export(t *testing.T) {
	ctx := context.Background()
	date := model.NewDate(2024, time.March, 1)
	store := newMockEntryStore(model.DiaryEntry{Date: date, Content: "hello"})
	svc := NewExportService(store, NewRenderer(nil, discardLogger(), &fakeWriter{format: "txt"}), discardLogger())

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, date, "txt", &buf))
	assert.Contains(t, buf.String(), "body=hello")

	err := svc.Export(ctx, date.AddDays(1), "txt", &buf)
	assert.ErrorIs(t, err, model.ErrEntryNotFound)

	store.loadErr = errors.New("db down")
	err = svc.Export(ctx, date, "txt", &buf)
	assert.True(t, model.IsStorage(err))
}

func TestExportService_ExportToFile(t *testing.T) {
	ctx := context.Background()
	date := model.NewDate(2024, time.March, 1)
	store := newMockEntryStore(model.DiaryEntry{Date: date, Content: "hello"})
	svc := NewExportService(store, NewRenderer(nil, discardLogger(), &fakeWriter{format: "txt"}), discardLogger())
	dir := t.TempDir()

	path, err := svc.ExportToFile(ctx, date, "txt", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Diary_2024-03-01.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "body=hello")

	custom := filepath.Join(dir, "custom.txt")
	path, err = svc.ExportToFile(ctx, date, "txt", custom)
	require.NoError(t, err)
	assert.Equal(t, custom, path)

	_, err = svc.ExportToFile(ctx, date, "docx", dir)
	assert.True(t, model.IsValidation(err))

	_, err = svc.ExportToFile(ctx, date.AddDays(1), "txt", dir)
	assert.ErrorIs(t, err, model.ErrEntryNotFound)
}

func TestExportService_ExportToFileRemovesPartialFile(t *testing.T) {
	ctx := context.Background()
	date := model.NewDate(2024, time.March, 1)
	store := newMockEntryStore(model.DiaryEntry{Date: date})
	svc := NewExportService(store, NewRenderer(nil, discardLogger(), &fakeWriter{format: "txt", err: errors.New("boom")}), discardLogger())
	dest := filepath.Join(t.TempDir(), "out.txt")

	path, err := svc.ExportToFile(ctx, date, "txt", dest)

	assert.True(t, model.IsRender(err))
	assert.Empty(t, path)
	assert.NoFileExists(t, dest)
}
