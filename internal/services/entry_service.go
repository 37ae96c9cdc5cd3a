package services

import (
	"context"
	"strings"
	"time"

	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
)

// Result is the outcome of an EntryStore write. Entry is nil after a delete
// or a no-op on an absent key. Synced=false means the write is only local.
type Result struct {
	Entry   *models.JournalEntry
	Synced  bool
	SyncErr error
}

type saveOptions struct {
	reply    string
	setReply bool
}

// SaveOption adjusts a Save call.
type SaveOption func(*saveOptions)

// WithReply records the raw tutoring reply alongside the entry text.
func WithReply(aiReply string) SaveOption {
	return func(o *saveOptions) {
		o.reply = aiReply
		o.setReply = true
	}
}

// EntryStore owns the per-day state machine absent -> draft -> final.
// Authenticated users go through the synced repository, guests through the
// local one.
type EntryStore struct {
	local  EntryRepository
	synced EntryRepository
	log    *logger.Logger
	now    func() time.Time
}

// NewEntryStore wires the two repositories. synced may be nil, in which case
// every identity is served locally.
func NewEntryStore(local, synced EntryRepository, log *logger.Logger) *EntryStore {
	return &EntryStore{
		local:  local,
		synced: synced,
		log:    log.With("service", "EntryStore"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *EntryStore) repo(id Identity) EntryRepository {
	if id.Authenticated && s.synced != nil {
		return s.synced
	}
	return s.local
}

// ValidDateKey reports whether key is a real calendar day in YYYY-MM-DD form.
func ValidDateKey(key string) bool {
	t, err := time.Parse(models.DateKeyLayout, key)
	return err == nil && t.Format(models.DateKeyLayout) == key
}

func (s *EntryStore) Get(ctx context.Context, id Identity, dateKey string) (*models.JournalEntry, error) {
	if !ValidDateKey(dateKey) {
		return nil, ErrInvalidDateKey
	}
	return s.repo(id).Get(ctx, id.UserID, dateKey)
}

// Save writes text for the day, creating the entry or updating a draft.
// Editing a final entry fails with ErrEntryFinalized; Reopen it first.
func (s *EntryStore) Save(ctx context.Context, id Identity, dateKey, text string, submitted bool, opts ...SaveOption) (Result, error) {
	if !ValidDateKey(dateKey) {
		return Result{}, ErrInvalidDateKey
	}
	if submitted && strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}

	repo := s.repo(id)
	existing, err := repo.Get(ctx, id.UserID, dateKey)
	if err != nil {
		return Result{}, err
	}
	if existing != nil && existing.Submitted {
		return Result{}, ErrEntryFinalized
	}

	now := s.now()
	e := models.JournalEntry{
		UserID:    id.UserID,
		DateKey:   dateKey,
		Text:      text,
		Submitted: submitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		e.CreatedAt = existing.CreatedAt
		e.AIReply = existing.AIReply
	}
	if o.setReply {
		e.AIReply = o.reply
	}
	return s.put(ctx, repo, e)
}

// MarkSubmitted finalizes an existing entry. It does nothing for an absent
// key and is idempotent for a final one.
func (s *EntryStore) MarkSubmitted(ctx context.Context, id Identity, dateKey string) (Result, error) {
	return s.transition(ctx, id, dateKey, true)
}

// Reopen demotes a final entry back to draft so it can be edited.
func (s *EntryStore) Reopen(ctx context.Context, id Identity, dateKey string) (Result, error) {
	return s.transition(ctx, id, dateKey, false)
}

func (s *EntryStore) transition(ctx context.Context, id Identity, dateKey string, submitted bool) (Result, error) {
	if !ValidDateKey(dateKey) {
		return Result{}, ErrInvalidDateKey
	}
	repo := s.repo(id)
	existing, err := repo.Get(ctx, id.UserID, dateKey)
	if err != nil {
		return Result{}, err
	}
	if existing == nil {
		s.log.Debug("state change on absent entry ignored", "user_id", id.UserID, "date_key", dateKey)
		return Result{Synced: true}, nil
	}
	if existing.Submitted == submitted {
		return Result{Entry: existing, Synced: true}, nil
	}
	e := *existing
	e.Submitted = submitted
	e.UpdatedAt = s.now()
	return s.put(ctx, repo, e)
}

// Delete removes the entry locally, then remotely. A failed remote delete is
// retried by Resync.
func (s *EntryStore) Delete(ctx context.Context, id Identity, dateKey string) (Result, error) {
	if !ValidDateKey(dateKey) {
		return Result{}, ErrInvalidDateKey
	}
	st, err := s.repo(id).Delete(ctx, id.UserID, dateKey)
	if err != nil {
		return Result{}, err
	}
	return Result{Synced: st.Synced, SyncErr: st.Err}, nil
}

// ListAll returns every entry of the identity ordered by date.
func (s *EntryStore) ListAll(ctx context.Context, id Identity) ([]models.JournalEntry, error) {
	return s.repo(id).List(ctx, id.UserID)
}

// Resync replays unsynced writes of every authenticated user.
func (s *EntryStore) Resync(ctx context.Context) (ResyncReport, error) {
	r, ok := s.synced.(Resyncer)
	if !ok {
		return ResyncReport{}, nil
	}
	return r.Resync(ctx)
}

// ClearUser drops the cached entries of a signed-in user on sign-out after
// one last push. Writes still pending stay cached for the sync worker. Guests
// have no sign-out and keep everything.
func (s *EntryStore) ClearUser(ctx context.Context, id Identity) error {
	if !id.Authenticated {
		return nil
	}
	if rep, err := s.Resync(ctx); err != nil || rep.Failed > 0 {
		s.log.Warn("unsynced entries kept after sign-out", "user_id", id.UserID, "failed", rep.Failed, "error", err)
	}
	return s.repo(id).Clear(ctx, id.UserID)
}

func (s *EntryStore) put(ctx context.Context, repo EntryRepository, e models.JournalEntry) (Result, error) {
	st, err := repo.Put(ctx, e)
	if err != nil {
		return Result{}, err
	}
	return Result{Entry: &e, Synced: st.Synced, SyncErr: st.Err}, nil
}
