// Package httphandler serves the diary REST API.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// maxUploadBytes caps image uploads.
const maxUploadBytes = 10 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	diary       *application.DiaryService
	gate        *application.CredentialGate
	sessions    *application.SessionIssuer
	calendar    *application.CalendarService
	exports     *application.ExportService
	attachments driven.AttachmentStore
	logger      *slog.Logger
	today       func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	diary *application.DiaryService,
	gate *application.CredentialGate,
	sessions *application.SessionIssuer,
	calendar *application.CalendarService,
	exports *application.ExportService,
	attachments driven.AttachmentStore,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		diary:       diary,
		gate:        gate,
		sessions:    sessions,
		calendar:    calendar,
		exports:     exports,
		attachments: attachments,
		logger:      logger,
		today:       time.Now,
	}
}

// Register adds the API routes to mux without middleware, so the web GUI
// can share one mux and one middleware chain.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/tags", h.Tags)
	mux.HandleFunc("GET /api/v1/credential", h.GetCredential)
	mux.HandleFunc("PUT /api/v1/credential", h.SetCredential)
	mux.HandleFunc("POST /api/v1/session", h.CreateSession)

	mux.HandleFunc("GET /api/v1/entries", h.requireSession(h.ListEntries))
	mux.HandleFunc("GET /api/v1/entries/{date}", h.requireSession(h.GetEntry))
	mux.HandleFunc("PUT /api/v1/entries/{date}", h.requireSession(h.SaveEntry))
	mux.HandleFunc("POST /api/v1/entries/{date}/export", h.requireSession(h.ExportEntry))
	mux.HandleFunc("POST /api/v1/attachments", h.requireSession(h.UploadAttachment))
	mux.HandleFunc("GET /api/v1/attachments", h.requireSession(h.GetAttachment))
	mux.HandleFunc("GET /api/v1/calendar/{year}/{month}", h.requireSession(h.GetCalendar))
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return Wrap(mux, logger)
}

// Wrap applies the standard middleware chain.
func Wrap(next http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Tags lists the selectable moods and weathers.
func (h *Handler) Tags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toTagsResponse())
}

// GetCredential reports whether a password has been configured.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	state, err := h.gate.State(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "failed to read credential state", err)
		return
	}
	writeJSON(w, http.StatusOK, CredentialResponse{Configured: state == model.CredentialSet})
}

// SetCredential sets the diary password. It is open until a password
// exists; after that a valid session is required to replace it. An
// unreadable credential store is treated as set.
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	state, err := h.gate.State(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "failed to read credential state", err)
		return
	}
	if state == model.CredentialSet {
		if err := h.sessions.Verify(bearerToken(r)); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.gate.SetCredential(r.Context(), req.Password); err != nil {
		writeServiceError(w, h.logger, "failed to set credential", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateSession exchanges the password for a bearer token.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.gate.Validate(r.Context(), req.Password) {
		h.logger.Warn("rejected login attempt", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, expiresAt, err := h.sessions.Issue()
	if err != nil {
		h.logger.Error("failed to issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
