package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// Compose lays out an entry as a document. imagePath must be a local file
// already known to exist, or empty.
func Compose(entry model.DiaryEntry, imagePath string) model.Document {
	return model.Document{
		Title:   model.DocumentTitle,
		Date:    entry.Date,
		Mood:    entry.Mood,
		Weather: entry.Weather,
		Meta: []model.MetaLine{
			{Label: model.LabelDate, Value: entry.Date.String()},
			{Label: model.LabelMood, Value: valueOrPlaceholder(entry.Mood.Label())},
			{Label: model.LabelWeather, Value: valueOrPlaceholder(entry.Weather.Label())},
		},
		Body:       entry.Content,
		ImagePath:  imagePath,
		Background: model.PageBackground(entry.Mood, entry.Weather),
	}
}

func valueOrPlaceholder(v string) string {
	if v == "" {
		return model.UnsetPlaceholder
	}
	return v
}

// DocumentFileName returns the default export file name, Diary_<date>.<ext>.
func DocumentFileName(date model.Date, ext string) string {
	return "Diary_" + date.String() + "." + ext
}

// Renderer turns entries into documents through the registered writers.
type Renderer struct {
	writers     map[string]driven.DocumentWriter
	attachments driven.AttachmentStore
	logger      *slog.Logger
}

// NewRenderer creates a Renderer. attachments may be nil, in which case
// image paths are treated as plain local paths.
func NewRenderer(attachments driven.AttachmentStore, logger *slog.Logger, writers ...driven.DocumentWriter) *Renderer {
	m := make(map[string]driven.DocumentWriter, len(writers))
	for _, w := range writers {
		m[w.Format()] = w
	}
	return &Renderer{writers: m, attachments: attachments, logger: logger}
}

// Formats lists the registered output formats, sorted.
func (r *Renderer) Formats() []string {
	formats := make([]string, 0, len(r.writers))
	for f := range r.writers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Writer returns the writer for format.
func (r *Renderer) Writer(format string) (driven.DocumentWriter, error) {
	w, ok := r.writers[strings.ToLower(format)]
	if !ok {
		return nil, &model.ValidationError{Field: "format", Msg: fmt.Sprintf("unsupported format %q (supported: %s)", format, strings.Join(r.Formats(), ", "))}
	}
	return w, nil
}

// Render writes entry to w in the given format. Writer failures are
// reported as *model.RenderError.
func (r *Renderer) Render(ctx context.Context, entry model.DiaryEntry, format string, w io.Writer) error {
	writer, err := r.Writer(format)
	if err != nil {
		return err
	}

	imagePath, cleanup := r.resolveImage(ctx, entry.ImagePath)
	defer cleanup()

	if err := writer.Write(ctx, Compose(entry, imagePath), w); err != nil {
		return asRenderError("write "+writer.Format(), err)
	}
	return nil
}

// resolveImage returns a local path for ref, or "" when the image is
// missing. A missing image never fails the render.
func (r *Renderer) resolveImage(ctx context.Context, ref string) (string, func()) {
	noop := func() {}
	if ref == "" {
		return "", noop
	}

	if r.attachments != nil && r.attachments.Owns(ref) {
		path, cleanup, err := r.attachments.Local(ctx, ref)
		if err != nil {
			r.logger.Warn("attachment unavailable, rendering without image", "ref", ref, "error", err)
			return "", noop
		}
		return path, cleanup
	}

	info, err := os.Stat(ref)
	if err != nil || info.IsDir() {
		r.logger.Warn("image file missing, rendering without image", "path", ref)
		return "", noop
	}
	return ref, noop
}

func asRenderError(op string, err error) error {
	var re *model.RenderError
	if errors.As(err, &re) {
		return err
	}
	return &model.RenderError{Op: op, Err: err}
}

// ExportService exports stored entries.
type ExportService struct {
	store    driven.EntryStore
	renderer *Renderer
	logger   *slog.Logger
}

// NewExportService creates an ExportService.
func NewExportService(store driven.EntryStore, renderer *Renderer, logger *slog.Logger) *ExportService {
	return &ExportService{store: store, renderer: renderer, logger: logger}
}

// Renderer returns the underlying renderer.
func (s *ExportService) Renderer() *Renderer {
	return s.renderer
}

// Export renders the stored entry for date to w. It returns an error
// wrapping model.ErrEntryNotFound if no entry exists.
func (s *ExportService) Export(ctx context.Context, date model.Date, format string, w io.Writer) error {
	entry, err := s.load(ctx, date)
	if err != nil {
		return err
	}
	return s.renderer.Render(ctx, entry, format, w)
}

// ExportToFile renders the stored entry for date into a file. If dest is
// empty or an existing directory, the default file name is used inside it.
// It returns the path written. A partially written file is removed.
func (s *ExportService) ExportToFile(ctx context.Context, date model.Date, format, dest string) (path string, err error) {
	writer, err := s.renderer.Writer(format)
	if err != nil {
		return "", err
	}
	entry, err := s.load(ctx, date)
	if err != nil {
		return "", err
	}

	path = dest
	if path == "" {
		path = "."
	}
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, DocumentFileName(date, writer.Extension()))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &model.RenderError{Op: "create " + path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &model.RenderError{Op: "close " + path, Err: closeErr}
		}
		if err != nil {
			_ = os.Remove(path)
			path = ""
		}
	}()

	if err := s.renderer.Render(ctx, entry, format, f); err != nil {
		return "", err
	}

	s.logger.Info("entry exported", "date", date.String(), "format", writer.Format(), "path", path)
	return path, nil
}

func (s *ExportService) load(ctx context.Context, date model.Date) (model.DiaryEntry, error) {
	entry, err := s.store.Load(ctx, date)
	if err != nil {
		return model.DiaryEntry{}, err
	}
	if entry == nil {
		return model.DiaryEntry{}, fmt.Errorf("export %s: %w", date, model.ErrEntryNotFound)
	}
	return *entry, nil
}
