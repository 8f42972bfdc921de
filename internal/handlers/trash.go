package handlers

import (
	"net/http"
)

func (h *Handlers) GetTrashedNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.db.ListTrashedNotes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, notes, http.StatusOK)
}

func (h *Handlers) RestoreNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	note, err := h.db.RestoreNote(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, note, http.StatusOK)
}

func (h *Handlers) DeleteTrashedNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.db.DeleteTrashedNote(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.message(w, "Note permanently deleted")
}

// CleanupTrash runs the retention sweep on demand, with the same cutoff rule
// as the schedule.
func (h *Handlers) CleanupTrash(w http.ResponseWriter, r *http.Request) {
	removed, err := h.sweeper.SweepNow(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, map[string]interface{}{
		"message": "Old trashed notes cleaned up",
		"removed": removed,
	}, http.StatusOK)
}
