package web

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	httphandler "github.com/ericfisherdev/mydiary/internal/adapter/driving/http"
	"github.com/ericfisherdev/mydiary/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/mydiary/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

// Editor shows the entry for {date}, or an empty form when none exists.
func (h *Handler) Editor(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, found, err := h.diary.Open(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to open entry", "date", date.String(), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	csrf := csrfToken(w, r)
	m := h.editorViewModel(entry, found, csrf)
	h.render(w, r, http.StatusOK, true, csrf, pages.Editor(m))
}

// SaveEditor stores the submitted form. An uploaded image replaces the
// current one; remove_image clears it. Backup failures are shown next to
// the saved confirmation.
func (h *Handler) SaveEditor(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	ctx := r.Context()
	existing, found, err := h.diary.Open(ctx, date)
	if err != nil {
		h.logger.Error("failed to open entry", "date", date.String(), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	csrf := csrfToken(w, r)
	entry := model.DiaryEntry{
		Date:      date,
		Content:   r.FormValue("content"),
		ImagePath: existing.ImagePath,
	}
	fail := func(status int, msg string) {
		m := h.editorViewModel(entry, found, csrf)
		m.Error = msg
		h.render(w, r, status, true, csrf, pages.Editor(m))
	}

	mood, moodErr := model.ParseMood(r.FormValue("mood"))
	weather, weatherErr := model.ParseWeather(r.FormValue("weather"))
	entry.Mood, entry.Weather = mood, weather
	if err := errors.Join(moodErr, weatherErr); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	if r.FormValue("remove_image") != "" {
		entry.ImagePath = ""
	}
	var uploaded string
	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		fail(http.StatusBadRequest, "無法讀取圖片")
		return
	default:
		ref, putErr := h.attachments.Put(ctx, header.Filename, header.Header.Get("Content-Type"), file)
		_ = file.Close()
		if putErr != nil {
			h.logger.Warn("image upload rejected", "date", date.String(), "error", putErr)
			fail(statusFor(putErr), "圖片上傳失敗："+putErr.Error())
			return
		}
		entry.ImagePath = ref
		uploaded = ref
	}

	result, err := h.diary.Save(ctx, entry)
	if err != nil {
		h.logger.Error("failed to save entry", "date", date.String(), "error", err)
		if uploaded != "" {
			if delErr := h.attachments.Delete(context.WithoutCancel(ctx), uploaded); delErr != nil {
				h.logger.Warn("failed to remove unsaved image", "ref", uploaded, "error", delErr)
			}
			entry.ImagePath = existing.ImagePath
		}
		fail(statusFor(err), "❌ 儲存失敗")
		return
	}

	m := h.editorViewModel(result.Entry, true, csrf)
	m.Saved = true
	m.BackupFailures = backupFailureNames(result.BackupFailures)
	h.render(w, r, http.StatusOK, true, csrf, pages.Editor(m))
}

// Export downloads the stored entry as ?format= (pdf by default).
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}
	writer, err := h.exports.Renderer().Writer(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := h.exports.Export(r.Context(), date, format, &buf); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("export failed", "date", date.String(), "format", format, "error", err)
			http.Error(w, "export failed", status)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	name := application.DocumentFileName(date, writer.Extension())
	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// Attachment streams an image referenced by ?ref=.
func (h *Handler) Attachment(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" || !h.attachments.Owns(ref) {
		http.NotFound(w, r)
		return
	}
	httphandler.ServeAttachment(w, r, h.attachments, ref, h.logger)
}

func (h *Handler) editorViewModel(entry model.DiaryEntry, exists bool, csrf string) vm.EditorViewModel {
	return vm.EditorViewModel{
		Date:        entry.Date.String(),
		Exists:      exists,
		Moods:       moodOptions(entry.Mood),
		Weathers:    weatherOptions(entry.Weather),
		Content:     entry.Content,
		PreviewHTML: RenderMarkdown(entry.Content),
		ImagePath:   entry.ImagePath,
		ImageURL:    h.imageURL(entry.ImagePath),
		Background:  model.PageBackground(entry.Mood, entry.Weather).Hex(),
		Formats:     h.exports.Renderer().Formats(),
		CSRF:        csrf,
	}
}

func (h *Handler) imageURL(ref string) string {
	if ref == "" || h.attachments == nil || !h.attachments.Owns(ref) {
		return ""
	}
	return attachmentPath(ref)
}
