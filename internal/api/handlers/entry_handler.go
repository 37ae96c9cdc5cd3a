package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Penpal/internal/core/parser"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
	"github.com/markdave123-py/Penpal/internal/services"
)

type EntryHandler struct {
	entries *services.EntryStore
	docs    *services.DocumentService
	archive Archiver
	log     *logger.Logger
}

// NewEntryHandler wires the entry routes. archive may be nil.
func NewEntryHandler(entries *services.EntryStore, docs *services.DocumentService, archive Archiver, log *logger.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, docs: docs, archive: archive, log: log.With("handler", "entries")}
}

type entryResponse struct {
	Entry    *models.JournalEntry   `json:"entry"`
	Sections map[parser.Name]string `json:"sections,omitempty"`
}

type saveEntryRequest struct {
	Text      string `json:"text"`
	Submitted bool   `json:"submitted"`
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	entries, err := h.entries.ListAll(r.Context(), id)
	if err != nil {
		h.log.Error("list entries failed", "user_id", id.UserID, "error", err)
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	e, err := h.entries.Get(r.Context(), id, chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "no entry for this day")
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{Entry: e, Sections: parser.Parse(e.AIReply).Map()})
}

func (h *EntryHandler) Put(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req saveEntryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	res, err := h.entries.Save(r.Context(), id, chi.URLParam(r, "date"), req.Text, req.Submitted)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.archived(r, res)
	writeResult(w, http.StatusOK, res)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	date := chi.URLParam(r, "date")
	res, err := h.entries.Delete(r.Context(), id, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if h.archive != nil {
		h.archive.Remove(r.Context(), id.UserID, date)
	}
	writeResult(w, http.StatusOK, res)
}

func (h *EntryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.entries.MarkSubmitted)
}

// Reopen is the explicit edit action that demotes a final entry to draft.
func (h *EntryHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.entries.Reopen)
}

type transitionFunc func(ctx context.Context, id services.Identity, dateKey string) (services.Result, error)

func (h *EntryHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	res, err := fn(r.Context(), id, chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if res.Entry == nil {
		writeError(w, http.StatusNotFound, "no entry for this day")
		return
	}
	h.archived(r, res)
	h.unarchived(r, res)
	writeResult(w, http.StatusOK, res)
}

// Import replaces the day's draft with the text of an uploaded document.
func (h *EntryHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImportBytes+(1<<20))
	if err := r.ParseMultipartForm(services.MaxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	res, err := h.docs.ImportDraft(ctx, id, chi.URLParam(r, "date"), filepath.Base(header.Filename), header.Header.Get("Content-Type"), file)
	if err != nil {
		if !errors.Is(err, services.ErrEntryFinalized) && !errors.Is(err, services.ErrEmptyText) && !errors.Is(err, services.ErrInvalidDateKey) {
			h.log.Warn("draft import failed", "user_id", id.UserID, "file", header.Filename, "error", err)
			writeError(w, http.StatusUnprocessableEntity, "could not read document")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *EntryHandler) archived(r *http.Request, res services.Result) {
	if h.archive != nil && res.Entry != nil && res.Entry.Submitted {
		h.archive.Archive(r.Context(), *res.Entry)
	}
}

// unarchived drops the off-site copy of an entry demoted to draft.
func (h *EntryHandler) unarchived(r *http.Request, res services.Result) {
	if h.archive != nil && res.Entry != nil && !res.Entry.Submitted {
		h.archive.Remove(r.Context(), res.Entry.UserID, res.Entry.DateKey)
	}
}
