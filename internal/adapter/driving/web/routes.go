package web

import "net/http"

// RegisterRoutes mounts the HTML pages under /app, the landing redirect at /
// and the embedded stylesheet under /static.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticRoot())))

	mux.HandleFunc("GET /{$}", h.Index)

	mux.HandleFunc("GET /app/setup", h.SetupPage)
	mux.HandleFunc("POST /app/setup", h.Setup)
	mux.HandleFunc("GET /app/login", h.LoginPage)
	mux.HandleFunc("POST /app/login", h.Login)
	mux.HandleFunc("POST /app/logout", h.Logout)

	mux.HandleFunc("GET /app/calendar", h.requireLogin(h.Calendar))
	mux.HandleFunc("GET /app/entries/{date}", h.requireLogin(h.Editor))
	mux.HandleFunc("POST /app/entries/{date}", h.requireLogin(h.SaveEditor))
	mux.HandleFunc("GET /app/entries/{date}/export", h.requireLogin(h.Export))
	mux.HandleFunc("GET /app/attachments", h.requireLogin(h.Attachment))
}
