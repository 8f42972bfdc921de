package handlers

import (
	"fmt"
	"net/http"

	"shared-notes/internal/models"
)

func (h *Handlers) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.db.ListNotes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, notes, http.StatusOK)
}

func (h *Handlers) GetPinnedNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.db.ListPinnedNotes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, notes, http.StatusOK)
}

func (h *Handlers) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	note, err := h.db.GetNote(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, note, http.StatusOK)
}

func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Pinned  *bool   `json:"pinned"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if req.Title == nil || *req.Title == "" || req.Content == nil || *req.Content == "" {
		h.fail(w, r, fmt.Errorf("%w: title and content are required", models.ErrInvalidInput))
		return
	}
	pinned := req.Pinned != nil && *req.Pinned

	note, err := h.db.CreateNote(r.Context(), *req.Title, *req.Content, pinned)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, note, http.StatusCreated)
}

func (h *Handlers) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var patch models.NotePatch
	if err := decode(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if patch.Empty() {
		h.fail(w, r, fmt.Errorf("%w: nothing to update", models.ErrInvalidInput))
		return
	}

	note, err := h.db.UpdateNote(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, note, http.StatusOK)
}

func (h *Handlers) TrashNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.db.TrashNote(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.message(w, "Note moved to trash")
}
