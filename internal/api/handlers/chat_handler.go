package handlers

import (
	"net/http"
	"time"

	"github.com/markdave123-py/Penpal/internal/core/parser"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
	"github.com/markdave123-py/Penpal/internal/services"
)

type ChatHandler struct {
	sessions *services.SessionRegistry
	entries  *services.EntryStore
	archive  Archiver
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
}

func NewChatHandler(sessions *services.SessionRegistry, entries *services.EntryStore, archive Archiver, loc *time.Location, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		entries:  entries,
		archive:  archive,
		loc:      loc,
		log:      log.With("handler", "chat"),
		now:      time.Now,
	}
}

type chatRequest struct {
	Text string `json:"text"`
	Date string `json:"date,omitempty"`
}

type chatResponse struct {
	Date     string                     `json:"date"`
	Reply    models.ConversationMessage `json:"reply"`
	Sections map[parser.Name]string     `json:"sections,omitempty"`
	Failed   bool                       `json:"failed"`
}

type historyResponse struct {
	Date     string                       `json:"date,omitempty"`
	Messages []models.ConversationMessage `json:"messages"`
}

// Send submits one message of the day's conversation.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	day, err := resolveDay(r, req.Date, h.loc, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	turn, err := h.sessions.Open(id.UserID, day).Submit(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Date:     day,
		Reply:    turn.Reply,
		Sections: turn.Sections.Map(),
		Failed:   turn.Failed,
	})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	s, ok := h.sessions.Current(id.UserID)
	if !ok {
		writeJSON(w, http.StatusOK, historyResponse{Messages: []models.ConversationMessage{}})
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Date: s.DateKey, Messages: s.Messages()})
}

// End finalizes the conversation into the day's entry and closes it.
func (h *ChatHandler) End(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	s, ok := h.sessions.Current(id.UserID)
	if !ok {
		writeError(w, http.StatusNotFound, "no active conversation")
		return
	}

	res, err := s.Finalize(r.Context(), h.entries, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.sessions.End(id.UserID)
	if h.archive != nil && res.Entry != nil {
		h.archive.Archive(r.Context(), *res.Entry)
	}
	h.log.Info("conversation finalized", "user_id", id.UserID, "date_key", s.DateKey, "synced", res.Synced)
	writeResult(w, http.StatusOK, res)
}

// Discard drops the conversation without saving anything.
func (h *ChatHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	h.sessions.End(id.UserID)
	w.WriteHeader(http.StatusNoContent)
}
