// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/mydiary/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/mydiary/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/mydiary/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

const (
	sessionCookieName = "diary_session"
	pageTitle         = "我的日記本"
	maxUploadBytes    = 10 << 20
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	diary       *application.DiaryService
	entries     *application.EntryList
	gate        *application.CredentialGate
	sessions    *application.SessionIssuer
	calendar    *application.CalendarService
	exports     *application.ExportService
	attachments driven.AttachmentStore
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a Handler with all required dependencies. entries must
// be subscribed to diary so the home list follows saves.
func NewHandler(
	diary *application.DiaryService,
	entries *application.EntryList,
	gate *application.CredentialGate,
	sessions *application.SessionIssuer,
	calendar *application.CalendarService,
	exports *application.ExportService,
	attachments driven.AttachmentStore,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		diary:       diary,
		entries:     entries,
		gate:        gate,
		sessions:    sessions,
		calendar:    calendar,
		exports:     exports,
		attachments: attachments,
		logger:      logger,
		now:         time.Now,
	}
}

func (h *Handler) today() model.Date {
	return model.DateOf(h.now())
}

// Index routes first-run users to setup, anonymous users to login, and
// everyone else to the home page for the current month.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	state, ok := h.credentialState(w, r)
	if !ok {
		return
	}
	if state == model.CredentialUnset {
		http.Redirect(w, r, "/app/setup", http.StatusSeeOther)
		return
	}
	if !h.loggedIn(r) {
		http.Redirect(w, r, "/app/login", http.StatusSeeOther)
		return
	}
	today := h.today()
	h.renderHome(w, r, today.Year, int(today.Month))
}

// Calendar renders the home page for ?year=&month=, defaulting to today.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	year, month := today.Year, int(today.Month)
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		month = n
	}
	h.renderHome(w, r, year, month)
}

func (h *Handler) renderHome(w http.ResponseWriter, r *http.Request, year, month int) {
	view, err := h.calendar.Month(r.Context(), year, month)
	if model.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to build calendar", "year", year, "month", month, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	csrf := csrfToken(w, r)
	today := h.today()
	home := vm.HomeViewModel{
		Entries:  toEntryCards(h.entries.Entries()),
		Calendar: toCalendarViewModel(view, today),
		Today:    today.String(),
		CSRF:     csrf,
	}
	h.render(w, r, http.StatusOK, true, csrf, pages.Home(home))
}

// SetupPage shows the set-password form. Once a password exists, changing
// it requires a session.
func (h *Handler) SetupPage(w http.ResponseWriter, r *http.Request) {
	state, ok := h.credentialState(w, r)
	if !ok {
		return
	}
	if state == model.CredentialSet && !h.loggedIn(r) {
		http.Redirect(w, r, "/app/login", http.StatusSeeOther)
		return
	}
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, h.loggedIn(r), csrf, pages.Login(vm.LoginViewModel{SetPassword: true, CSRF: csrf}))
}

// Setup stores a new password and starts a session.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}
	state, ok := h.credentialState(w, r)
	if !ok {
		return
	}
	if state == model.CredentialSet && !h.loggedIn(r) {
		http.Redirect(w, r, "/app/login", http.StatusSeeOther)
		return
	}

	password := r.FormValue("password")
	fail := func(status int, msg string) {
		csrf := csrfToken(w, r)
		h.render(w, r, status, h.loggedIn(r), csrf, pages.Login(vm.LoginViewModel{SetPassword: true, Error: msg, CSRF: csrf}))
	}
	if password != r.FormValue("confirm") {
		fail(http.StatusBadRequest, "兩次輸入的密碼不一致")
		return
	}

	err := h.gate.SetCredential(r.Context(), password)
	if model.IsValidation(err) {
		fail(http.StatusBadRequest, "密碼不可為空白")
		return
	}
	if err != nil {
		h.logger.Error("failed to set password", "error", err)
		fail(http.StatusInternalServerError, "無法儲存密碼")
		return
	}

	if err := h.startSession(w); err != nil {
		h.logger.Error("failed to issue session", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginPage shows the password prompt.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	state, ok := h.credentialState(w, r)
	if !ok {
		return
	}
	if state == model.CredentialUnset {
		http.Redirect(w, r, "/app/setup", http.StatusSeeOther)
		return
	}
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, false, csrf, pages.Login(vm.LoginViewModel{CSRF: csrf}))
}

// Login validates the password and starts a session. A wrong password
// re-prompts; there is no lockout.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}
	if !h.gate.Validate(r.Context(), r.FormValue("password")) {
		csrf := csrfToken(w, r)
		h.render(w, r, http.StatusUnauthorized, false, csrf, pages.Login(vm.LoginViewModel{Error: "❌ 密碼錯誤", CSRF: csrf}))
		return
	}
	if err := h.startSession(w); err != nil {
		h.logger.Error("failed to issue session", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/app/login", http.StatusSeeOther)
}

// credentialState answers 500 when the credential store cannot be read, so
// a read failure never reopens first-run setup.
func (h *Handler) credentialState(w http.ResponseWriter, r *http.Request) (model.CredentialState, bool) {
	state, err := h.gate.State(r.Context())
	if err != nil {
		h.logger.Error("failed to read credential state", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return state, false
	}
	return state, true
}

func (h *Handler) startSession(w http.ResponseWriter) error {
	token, exp, err := h.sessions.Issue()
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return h.sessions.Verify(cookie.Value) == nil
}

// requireLogin redirects to the login page when the request carries no
// valid session cookie.
func (h *Handler) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.loggedIn(r) {
			http.Redirect(w, r, "/app/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, loggedIn bool, csrf string, body templ.Component) {
	layout := templates.Layout(pageTitle, loggedIn, csrf, body)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrEntryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
