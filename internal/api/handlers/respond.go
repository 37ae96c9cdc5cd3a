package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/markdave123-py/Penpal/internal/models"
	"github.com/markdave123-py/Penpal/internal/services"
)

// TimezoneHeader carries the client's IANA zone for resolving "today".
const TimezoneHeader = "X-Timezone"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEntryFinalized),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrEmptyText),
		errors.Is(err, services.ErrInvalidDateKey),
		errors.Is(err, services.ErrInvalidSignup):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func identity(w http.ResponseWriter, r *http.Request) (services.Identity, bool) {
	id, ok := services.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

// writeResponse is the body of every entry write.
type writeResponse struct {
	Entry     *models.JournalEntry `json:"entry,omitempty"`
	Synced    bool                 `json:"synced"`
	SyncError string               `json:"sync_error,omitempty"`
}

func writeResult(w http.ResponseWriter, status int, res services.Result) {
	body := writeResponse{Entry: res.Entry, Synced: res.Synced}
	if !res.Synced {
		w.Header().Set("X-Sync-Status", "pending")
		if res.SyncErr != nil {
			body.SyncError = res.SyncErr.Error()
		}
	}
	writeJSON(w, status, body)
}

// resolveDay picks the calendar day of a request: an explicit date, else
// today in the client's zone, else today in the server default zone.
func resolveDay(r *http.Request, explicit string, fallback *time.Location, now time.Time) (string, error) {
	if explicit != "" {
		if !services.ValidDateKey(explicit) {
			return "", services.ErrInvalidDateKey
		}
		return explicit, nil
	}
	loc := fallback
	if tz := r.Header.Get(TimezoneHeader); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(models.DateKeyLayout), nil
}

// Archiver keeps an off-site copy of final entries. Both calls return
// without waiting for the storage round trip.
type Archiver interface {
	Archive(ctx context.Context, e models.JournalEntry)
	Remove(ctx context.Context, userID, dateKey string)
}
