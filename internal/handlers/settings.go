package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"shared-notes/internal/models"
	"shared-notes/internal/uploads"
)

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.db.GetSettings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, settings, http.StatusOK)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		models.SettingsPatch
		Password *string `json:"password"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Password != nil {
		h.fail(w, r, fmt.Errorf("%w: use change-password to change the password", models.ErrInvalidInput))
		return
	}

	if err := h.db.UpdateSettings(r.Context(), req.SettingsPatch); err != nil {
		h.fail(w, r, err)
		return
	}
	h.message(w, "Settings updated")
}

// UploadWallpaper stores the multipart field "wallpaper" and records its
// public path as a preset.
func (h *Handlers) UploadWallpaper(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.wallpapers.MaxBytes()+maxBodyBytes)

	file, header, err := r.FormFile("wallpaper")
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: no wallpaper file uploaded", models.ErrInvalidInput))
		return
	}
	defer file.Close()

	path, err := h.wallpapers.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, uploads.ErrUnsupportedType) || errors.Is(err, uploads.ErrTooLarge) {
			err = fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
		}
		h.fail(w, r, err)
		return
	}

	if err := h.db.AddWallpaperPreset(r.Context(), path); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("wallpaper uploaded", "path", path, "size", header.Size)
	h.respond(w, map[string]string{
		"message": "Wallpaper uploaded",
		"path":    path,
	}, http.StatusOK)
}

func (h *Handlers) GetWallpaperPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.db.WallpaperPresets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, map[string][]string{"wallpaperPresets": presets}, http.StatusOK)
}

func (h *Handlers) GetCurrentWallpaper(w http.ResponseWriter, r *http.Request) {
	current, err := h.db.CurrentWallpaper(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, current, http.StatusOK)
}
