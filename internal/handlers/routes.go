package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type RouterOptions struct {
	// MetricsPath is ignored when the handlers were created without metrics.
	MetricsPath string
	// AllowedOrigins may call the API from a browser with credentials. CORS
	// is off when it is empty.
	AllowedOrigins []string
}

// Router builds the full HTTP surface.
func (h *Handlers) Router(opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.error(w, "NotFound", "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.error(w, "MethodNotAllowed", "Method not allowed", http.StatusMethodNotAllowed)
	})
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Handle(opts.MetricsPath, h.metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/ping", h.Ping).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(h.wallpapers.FileSystem())))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Read by the lock screen before anyone has unlocked.
	api.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings/upload-wallpaper", h.UploadWallpaper).Methods(http.MethodPost)
	api.HandleFunc("/settings/wallpapers", h.GetWallpaperPresets).Methods(http.MethodGet)
	api.HandleFunc("/settings/current-wallpaper", h.GetCurrentWallpaper).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(h.auth.Middleware(h.fail))

	protected.HandleFunc("/notes", h.GetNotes).Methods(http.MethodGet)
	protected.HandleFunc("/notes", h.CreateNote).Methods(http.MethodPost)
	protected.HandleFunc("/notes/pinned", h.GetPinnedNotes).Methods(http.MethodGet)
	protected.HandleFunc("/notes/{id:[0-9]+}", h.GetNote).Methods(http.MethodGet)
	protected.HandleFunc("/notes/{id:[0-9]+}", h.UpdateNote).Methods(http.MethodPut)
	protected.HandleFunc("/notes/{id:[0-9]+}", h.TrashNote).Methods(http.MethodDelete)

	protected.HandleFunc("/settings/change-password", h.ChangePassword).Methods(http.MethodPut)
	protected.HandleFunc("/settings/trash", h.GetTrashedNotes).Methods(http.MethodGet)
	protected.HandleFunc("/settings/trash/restore/{id:[0-9]+}", h.RestoreNote).Methods(http.MethodPut)
	protected.HandleFunc("/settings/trash/delete/{id:[0-9]+}", h.DeleteTrashedNote).Methods(http.MethodDelete)
	protected.HandleFunc("/settings/trash/cleanup", h.CleanupTrash).Methods(http.MethodDelete)

	if len(opts.AllowedOrigins) == 0 {
		return r
	}
	// Preflights are answered here, before route matching.
	return cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
