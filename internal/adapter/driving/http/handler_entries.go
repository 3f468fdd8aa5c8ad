package httphandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// ListEntries returns every entry, most recent first.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.diary.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "failed to list entries", err)
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetEntry returns the entry for a date.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.diary.Get(r.Context(), date)
	if err != nil {
		writeServiceError(w, h.logger, "failed to get entry", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(*entry))
}

// SaveEntry creates or replaces the entry for a date.
func (h *Handler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := entryFromRequest(date, req)
	if err != nil {
		writeServiceError(w, h.logger, "invalid entry", err)
		return
	}

	result, err := h.diary.Save(r.Context(), entry)
	if err != nil {
		writeServiceError(w, h.logger, "failed to save entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toSaveResponse(result))
}

func entryFromRequest(date model.Date, req EntryRequest) (model.DiaryEntry, error) {
	mood, err := model.ParseMood(req.Mood)
	if err != nil {
		return model.DiaryEntry{}, err
	}
	weather, err := model.ParseWeather(req.Weather)
	if err != nil {
		return model.DiaryEntry{}, err
	}
	return model.DiaryEntry{
		Date:      date,
		Mood:      mood,
		Weather:   weather,
		Content:   req.Content,
		ImagePath: req.ImagePath,
	}, nil
}

// ExportEntry renders a stored entry and streams it as a download. The
// document is rendered fully before any byte is sent so a failure still
// yields a JSON error.
func (h *Handler) ExportEntry(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}
	writer, err := h.exports.Renderer().Writer(format)
	if err != nil {
		writeServiceError(w, h.logger, "invalid export format", err)
		return
	}

	var buf bytes.Buffer
	if err := h.exports.Export(r.Context(), date, format, &buf); err != nil {
		writeServiceError(w, h.logger, "failed to export entry", err)
		return
	}

	filename := application.DocumentFileName(date, writer.Extension())
	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// UploadAttachment stores the multipart "image" field and returns its ref.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if h.attachments == nil {
		writeError(w, http.StatusNotImplemented, "attachments are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()

	ref, err := h.attachments.Put(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(w, h.logger, "failed to store attachment", err)
		return
	}

	writeJSON(w, http.StatusCreated, AttachmentResponse{ImagePath: ref})
}

// GetAttachment streams a stored image given its ref query parameter.
func (h *Handler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	if h.attachments == nil {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}
	ServeAttachment(w, r, h.attachments, r.URL.Query().Get("ref"), h.logger)
}

// ServeAttachment copies the referenced image to w, sniffing its type.
func ServeAttachment(w http.ResponseWriter, r *http.Request, store driven.AttachmentStore, ref string, logger *slog.Logger) {
	rc, err := store.Open(r.Context(), ref)
	if errors.Is(err, driven.ErrAttachmentNotFound) {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}
	if err != nil {
		logger.Error("failed to open attachment", "ref", ref, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer rc.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(rc, head)
	w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(head[:n])
	_, _ = io.Copy(w, rc)
}

// GetCalendar returns the month grid for year/month.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, yErr := strconv.Atoi(r.PathValue("year"))
	month, mErr := strconv.Atoi(r.PathValue("month"))
	if yErr != nil || mErr != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid year/month %q/%q", r.PathValue("year"), r.PathValue("month")))
		return
	}

	view, err := h.calendar.Month(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, h.logger, "failed to build calendar", err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarResponse(view, application.YearChoices(model.DateOf(h.today()))))
}
