package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/markdave123-py/Penpal/internal/api/middlewares"
	"github.com/markdave123-py/Penpal/internal/core/cache"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
	"github.com/markdave123-py/Penpal/internal/services"
)

type stubLLM struct{ reply string }

func (s stubLLM) Generate(context.Context, string, string) (string, error) { return s.reply, nil }

type recordingArchiver struct {
	got     []models.JournalEntry
	removed []string
}

func (a *recordingArchiver) Archive(_ context.Context, e models.JournalEntry) { a.got = append(a.got, e) }

func (a *recordingArchiver) Remove(_ context.Context, userID, dateKey string) {
	a.removed = append(a.removed, userID+"/"+dateKey)
}

const reply = "**Corrected Entry:** Je suis allé au parc.\n**Follow-up:** Avec qui ?\n**Follow-up Translation:** With whom?"

func newRouter(t *testing.T, arch *recordingArchiver) http.Handler {
	t.Helper()
	log := logger.Nop()
	entries := services.NewEntryStore(services.NewLocalEntryRepo(cache.NewMemoryCache()), nil, log)
	phrases := services.NewPhraseStore(nil, log)
	sessions := services.NewSessionRegistry(stubLLM{reply: reply}, "prompt", log)

	eh := NewEntryHandler(entries, nil, arch, log)
	ch := NewChatHandler(sessions, entries, arch, time.UTC, log)
	mh := NewMetricsHandler(services.NewMetricsService(entries, phrases, log), time.UTC)
	ph := NewPhraseHandler(phrases)

	r := chi.NewRouter()
	r.Use(appMiddleware.Identity("secret"))
	r.Get("/api/entries", eh.List)
	r.Get("/api/entries/{date}", eh.Get)
	r.Put("/api/entries/{date}", eh.Put)
	r.Delete("/api/entries/{date}", eh.Delete)
	r.Post("/api/entries/{date}/submit", eh.Submit)
	r.Post("/api/entries/{date}/reopen", eh.Reopen)
	r.Post("/api/chat/messages", ch.Send)
	r.Get("/api/chat/messages", ch.History)
	r.Post("/api/chat/end", ch.End)
	r.Get("/api/metrics", mh.Get)
	r.With(appMiddleware.RequireUser).Get("/api/phrases", ph.List)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(appMiddleware.DeviceHeader, "tablet")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEntryLifecycle(t *testing.T) {
	h := newRouter(t, &recordingArchiver{})

	rec := do(t, h, http.MethodPut, "/api/entries/2024-02-01", map[string]any{"text": "brouillon"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put: %d %s", rec.Code, rec.Body)
	}
	var wr writeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &wr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !wr.Synced || wr.Entry == nil || wr.Entry.Text != "brouillon" {
		t.Fatalf("unexpected body: %+v", wr)
	}

	if rec := do(t, h, http.MethodPost, "/api/entries/2024-02-01/submit", nil); rec.Code != http.StatusOK {
		t.Fatalf("submit: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/api/entries/2024-02-01", map[string]any{"text": "modifié"}); rec.Code != http.StatusConflict {
		t.Fatalf("edit of final entry: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/entries/2024-02-01/reopen", nil); rec.Code != http.StatusOK {
		t.Fatalf("reopen: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/api/entries/2024-02-01", map[string]any{"text": "modifié"}); rec.Code != http.StatusOK {
		t.Fatalf("edit after reopen: %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/api/entries/2024-02-09", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing entry: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/entries/02-01-2024", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/entries/2024-02-09/submit", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("submit absent entry: %d", rec.Code)
	}
}

func TestEntryArchiveFollowsLifecycle(t *testing.T) {
	arch := &recordingArchiver{}
	h := newRouter(t, arch)

	if rec := do(t, h, http.MethodPut, "/api/entries/2024-02-03", map[string]any{"text": "fini", "submitted": true}); rec.Code != http.StatusOK {
		t.Fatalf("put final: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodPost, "/api/entries/2024-02-03/reopen", nil); rec.Code != http.StatusOK {
		t.Fatalf("reopen: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/entries/2024-02-03", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}

	if len(arch.got) != 1 || arch.got[0].DateKey != "2024-02-03" {
		t.Fatalf("archived: %+v", arch.got)
	}
	want := []string{"guest:tablet/2024-02-03", "guest:tablet/2024-02-03"}
	if len(arch.removed) != len(want) || arch.removed[0] != want[0] || arch.removed[1] != want[1] {
		t.Fatalf("removed = %v, want %v", arch.removed, want)
	}
}

func TestChatFinalizeAndMetrics(t *testing.T) {
	arch := &recordingArchiver{}
	h := newRouter(t, arch)

	rec := do(t, h, http.MethodPost, "/api/chat/messages", map[string]any{"text": "je suis aller au parc", "date": "2024-02-02"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send: %d %s", rec.Code, rec.Body)
	}
	var cr chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cr.Sections["followup"] != "Avec qui ?" || cr.Sections["followupTranslation"] != "With whom?" {
		t.Fatalf("sections: %+v", cr.Sections)
	}

	rec = do(t, h, http.MethodGet, "/api/chat/messages", nil)
	var hist historyResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &hist)
	if hist.Date != "2024-02-02" || len(hist.Messages) != 2 {
		t.Fatalf("history: %+v", hist)
	}

	if rec := do(t, h, http.MethodPost, "/api/chat/end", nil); rec.Code != http.StatusOK {
		t.Fatalf("end: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodPost, "/api/chat/end", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second end: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/entries/2024-02-02", nil)
	var er entryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Entry == nil || !er.Entry.Submitted || er.Entry.Text != "Je suis allé au parc." {
		t.Fatalf("finalized entry: %+v", er.Entry)
	}
	if len(arch.got) != 1 || arch.got[0].DateKey != "2024-02-02" {
		t.Fatalf("archived: %+v", arch.got)
	}

	rec = do(t, h, http.MethodGet, "/api/metrics?today=2024-02-02", nil)
	var snap models.MetricsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	want := models.MetricsSnapshot{CurrentStreak: 1, LongestStreak: 1, WordsWritten: 5}
	if snap != want {
		t.Fatalf("metrics = %+v, want %+v", snap, want)
	}
}

func TestPhrasesRequireSignIn(t *testing.T) {
	h := newRouter(t, &recordingArchiver{})
	if rec := do(t, h, http.MethodGet, "/api/phrases", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("guest phrases: %d", rec.Code)
	}
}

func TestResolveDay(t *testing.T) {
	now := time.Date(2024, 1, 5, 23, 30, 0, 0, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got, _ := resolveDay(req, "", time.UTC, now); got != "2024-01-05" {
		t.Fatalf("default zone: %s", got)
	}
	req.Header.Set(TimezoneHeader, "Asia/Tokyo")
	if got, _ := resolveDay(req, "", time.UTC, now); got != "2024-01-06" {
		t.Fatalf("client zone: %s", got)
	}
	if got, _ := resolveDay(req, "2023-12-31", time.UTC, now); got != "2023-12-31" {
		t.Fatalf("explicit: %s", got)
	}
	if _, err := resolveDay(req, "31/12/2023", time.UTC, now); err == nil {
		t.Fatalf("expected error for bad date")
	}
}
