package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps a domain error to its HTTP status. Validation
// messages are echoed to the client; everything else is logged and hidden.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, model.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
	case model.IsRender(err):
		logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
	default:
		logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// TagResponse is one selectable mood or weather.
type TagResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// TagsResponse lists the closed mood and weather sets.
type TagsResponse struct {
	Moods    []TagResponse `json:"moods"`
	Weathers []TagResponse `json:"weathers"`
}

// CredentialResponse reports whether a password is configured.
type CredentialResponse struct {
	Configured bool `json:"configured"`
}

// PasswordRequest is the body for setting a password or opening a session.
type PasswordRequest struct {
	Password string `json:"password"`
}

// SessionResponse carries a bearer token.
type SessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// EntryRequest is the body of PUT /entries/{date}. Mood and weather accept
// either codes or display labels; empty means unset.
type EntryRequest struct {
	Mood      string `json:"mood"`
	Weather   string `json:"weather"`
	Content   string `json:"content"`
	ImagePath string `json:"image_path"`
}

// EntryResponse is the JSON representation of a diary entry.
type EntryResponse struct {
	Date         string `json:"date"`
	Mood         string `json:"mood"`
	MoodLabel    string `json:"mood_label"`
	Weather      string `json:"weather"`
	WeatherLabel string `json:"weather_label"`
	Content      string `json:"content"`
	ImagePath    string `json:"image_path"`
	Tint         string `json:"tint"`
	Background   string `json:"background"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// SaveResponse is returned by PUT /entries/{date}.
type SaveResponse struct {
	Entry          EntryResponse   `json:"entry"`
	BackupFailures []BackupFailure `json:"backup_failures"`
}

// BackupFailure names a backup sink that did not receive the entry.
type BackupFailure struct {
	Sink  string `json:"sink"`
	Error string `json:"error"`
}

// AttachmentResponse is returned after an image upload.
type AttachmentResponse struct {
	ImagePath string `json:"image_path"`
}

// CalendarResponse is a month grid.
type CalendarResponse struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Headers  []string         `json:"headers"`
	Weeks    [][]CellResponse `json:"weeks"`
	Previous string           `json:"previous"`
	Next     string           `json:"next"`
	Years    []int            `json:"years"`
}

// CellResponse is one day of a month grid.
type CellResponse struct {
	Date     string `json:"date"`
	Day      int    `json:"day"`
	InMonth  bool   `json:"in_month"`
	HasEntry bool   `json:"has_entry"`
	Mood     string `json:"mood,omitempty"`
	Weather  string `json:"weather,omitempty"`
	Tint     string `json:"tint,omitempty"`
}

func toTagsResponse() TagsResponse {
	resp := TagsResponse{
		Moods:    make([]TagResponse, 0, len(model.Moods)),
		Weathers: make([]TagResponse, 0, len(model.Weathers)),
	}
	for _, m := range model.Moods {
		resp.Moods = append(resp.Moods, TagResponse{Code: string(m), Label: m.Label()})
	}
	for _, w := range model.Weathers {
		resp.Weathers = append(resp.Weathers, TagResponse{Code: string(w), Label: w.Label()})
	}
	return resp
}

// toEntryResponse converts a domain DiaryEntry to its JSON response representation.
func toEntryResponse(e model.DiaryEntry) EntryResponse {
	return EntryResponse{
		Date:         e.Date.String(),
		Mood:         string(e.Mood),
		MoodLabel:    e.Mood.Label(),
		Weather:      string(e.Weather),
		WeatherLabel: e.Weather.Label(),
		Content:      e.Content,
		ImagePath:    e.ImagePath,
		Tint:         model.CardTint(e.Mood, e.Weather).Hex(),
		Background:   model.PageBackground(e.Mood, e.Weather).Hex(),
		CreatedAt:    formatTimestamp(e.CreatedAt),
		UpdatedAt:    formatTimestamp(e.UpdatedAt),
	}
}

func toSaveResponse(res application.SaveResult) SaveResponse {
	failures := make([]BackupFailure, 0, len(res.BackupFailures))
	for _, f := range res.BackupFailures {
		failures = append(failures, BackupFailure{Sink: f.Sink, Error: f.Err.Error()})
	}
	return SaveResponse{Entry: toEntryResponse(res.Entry), BackupFailures: failures}
}

func toCalendarResponse(v model.MonthView, years []int) CalendarResponse {
	weeks := make([][]CellResponse, 0, len(v.Cells)/7)
	for _, week := range v.Weeks() {
		row := make([]CellResponse, 0, len(week))
		for _, c := range week {
			cell := CellResponse{
				Date:     c.Date.String(),
				Day:      c.Date.Day,
				InMonth:  c.InMonth,
				HasEntry: c.HasEntry,
			}
			if c.HasEntry {
				cell.Mood = string(c.Mood)
				cell.Weather = string(c.Weather)
				cell.Tint = model.CardTint(c.Mood, c.Weather).Hex()
			}
			row = append(row, cell)
		}
		weeks = append(weeks, row)
	}

	return CalendarResponse{
		Year:     v.Year,
		Month:    v.Month,
		Headers:  v.Headers,
		Weeks:    weeks,
		Previous: v.Previous.String(),
		Next:     v.Next.String(),
		Years:    years,
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
