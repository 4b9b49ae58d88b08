package api

import (
	"net/http"
)

// GetSessionHistory возвращает историю этапов сессии.
// GET /api/v1/sessions/{id}/history
func (h *Handler) GetSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		BadRequest(w, "session id is required")
		return
	}

	// Get создаёт сессию при первом обращении, поэтому пустая история —
	// валидный ответ, а не 404.
	history := h.store.Get(id).History()
	List(w, history, len(history))
}

// ClearSession удаляет сессию вместе с накопленным контекстом.
// DELETE /api/v1/sessions/{id}
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		BadRequest(w, "session id is required")
		return
	}

	if !h.store.Clear(id) {
		NotFound(w, "session not found")
		return
	}

	NoContent(w)
}
