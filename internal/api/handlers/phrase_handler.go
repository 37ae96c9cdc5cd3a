package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Penpal/internal/models"
	"github.com/markdave123-py/Penpal/internal/services"
)

type PhraseHandler struct {
	phrases *services.PhraseStore
}

func NewPhraseHandler(phrases *services.PhraseStore) *PhraseHandler {
	return &PhraseHandler{phrases: phrases}
}

type addPhraseRequest struct {
	Phrase      string `json:"phrase"`
	Translation string `json:"translation"`
}

type extractRequest struct {
	Body string `json:"body"`
}

func (h *PhraseHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ps, err := h.phrases.ListAll(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ps == nil {
		ps = []models.SavedPhrase{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"phrases": ps})
}

// Add responds 201 for a new phrase and 200 with the stored one otherwise.
func (h *PhraseHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req addPhraseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	p, created, err := h.phrases.Add(r.Context(), id, req.Phrase, req.Translation)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"phrase": p, "created": created})
}

func (h *PhraseHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	removed, err := h.phrases.Remove(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h *PhraseHandler) Exists(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	phrase := r.URL.Query().Get("phrase")
	if phrase == "" {
		writeError(w, http.StatusBadRequest, "phrase is required")
		return
	}
	exists, err := h.phrases.Exists(r.Context(), id, phrase)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Extract splits a section body into savable items.
func (h *PhraseHandler) Extract(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req extractRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	items, err := h.phrases.Candidates(r.Context(), id, req.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
