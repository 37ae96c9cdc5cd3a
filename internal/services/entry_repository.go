package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
)

// SyncStatus reports whether a write reached the remote store. A write with
// Synced=false is kept locally and retried by Resync.
type SyncStatus struct {
	Synced bool
	Err    error
}

// ResyncReport counts the outcome of one replay of unsynced writes.
type ResyncReport struct {
	Pushed  int
	Deleted int
	Failed  int
}

// EntryRepository is keyed storage of journal entries. Implementations write
// the local cache before anything else.
type EntryRepository interface {
	Get(ctx context.Context, userID, dateKey string) (*models.JournalEntry, error)
	Put(ctx context.Context, e models.JournalEntry) (SyncStatus, error)
	Delete(ctx context.Context, userID, dateKey string) (SyncStatus, error)
	List(ctx context.Context, userID string) ([]models.JournalEntry, error)
	// Clear drops local copies that the remote store already holds.
	Clear(ctx context.Context, userID string) error
}

// Resyncer replays writes that did not reach the remote store.
type Resyncer interface {
	Resync(ctx context.Context) (ResyncReport, error)
}

var (
	_ EntryRepository = (*LocalEntryRepo)(nil)
	_ EntryRepository = (*SyncedEntryRepo)(nil)
	_ Resyncer        = (*SyncedEntryRepo)(nil)
)

// LocalEntryRepo keeps entries in the local cache only. It serves guests.
type LocalEntryRepo struct {
	cache *entryCache
}

func NewLocalEntryRepo(kv core.KVCache) *LocalEntryRepo {
	return &LocalEntryRepo{cache: &entryCache{kv: kv}}
}

func (r *LocalEntryRepo) Get(ctx context.Context, userID, dateKey string) (*models.JournalEntry, error) {
	ce, err := r.cache.get(ctx, userID, dateKey)
	if err != nil || ce == nil {
		return nil, err
	}
	e := ce.JournalEntry
	return &e, nil
}

func (r *LocalEntryRepo) Put(ctx context.Context, e models.JournalEntry) (SyncStatus, error) {
	if err := r.cache.put(ctx, e, false); err != nil {
		return SyncStatus{}, err
	}
	return SyncStatus{Synced: true}, nil
}

func (r *LocalEntryRepo) Delete(ctx context.Context, userID, dateKey string) (SyncStatus, error) {
	if err := r.cache.remove(ctx, userID, dateKey); err != nil {
		return SyncStatus{}, err
	}
	return SyncStatus{Synced: true}, nil
}

func (r *LocalEntryRepo) List(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	cached, err := r.cache.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.JournalEntry, 0, len(cached))
	for _, ce := range cached {
		out = append(out, ce.JournalEntry)
	}
	sortByDate(out)
	return out, nil
}

// Clear is a no-op: the cache holds the only copy.
func (r *LocalEntryRepo) Clear(context.Context, string) error {
	return nil
}

// SyncedEntryRepo reads the remote store first and falls back to the local
// cache when it is unreachable. Writes land in the cache flagged pending and
// the flag is cleared once the remote accepts them.
type SyncedEntryRepo struct {
	remote  core.EntryRemote
	cache   *entryCache
	log     *logger.Logger
	timeout time.Duration
}

func NewSyncedEntryRepo(remote core.EntryRemote, kv core.KVCache, log *logger.Logger) *SyncedEntryRepo {
	return &SyncedEntryRepo{
		remote:  remote,
		cache:   &entryCache{kv: kv},
		log:     log.With("service", "SyncedEntryRepo"),
		timeout: 10 * time.Second,
	}
}

func (r *SyncedEntryRepo) Get(ctx context.Context, userID, dateKey string) (*models.JournalEntry, error) {
	ce, cacheErr := r.cache.get(ctx, userID, dateKey)
	if cacheErr != nil {
		r.log.Warn("cache read failed", "user_id", userID, "date_key", dateKey, "error", cacheErr)
	}
	if ce != nil && ce.PendingSync {
		e := ce.JournalEntry
		return &e, nil
	}
	if deleted, _ := r.cache.hasTombstone(ctx, userID, dateKey); deleted {
		return nil, nil
	}

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	remote, err := r.remote.GetEntry(rctx, userID, dateKey)
	if err != nil {
		r.log.Warn("remote read failed, using cache", "user_id", userID, "date_key", dateKey, "error", err)
		if ce != nil {
			e := ce.JournalEntry
			return &e, nil
		}
		return nil, cacheErr
	}
	if remote == nil {
		if err := r.cache.dropClean(ctx, userID, dateKey); err != nil {
			r.log.Warn("drop stale cache entry failed", "user_id", userID, "date_key", dateKey, "error", err)
		}
		return nil, nil
	}
	if err := r.cache.refresh(ctx, *remote); err != nil {
		r.log.Warn("cache refresh failed", "user_id", userID, "date_key", dateKey, "error", err)
	}
	return remote, nil
}

func (r *SyncedEntryRepo) Put(ctx context.Context, e models.JournalEntry) (SyncStatus, error) {
	if err := r.cache.put(ctx, e, true); err != nil {
		return SyncStatus{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.remote.UpsertEntry(rctx, &e); err != nil {
		r.log.Warn("remote upsert failed, entry kept locally", "user_id", e.UserID, "date_key", e.DateKey, "error", err)
		return SyncStatus{Err: fmt.Errorf("remote upsert: %w", err)}, nil
	}
	if err := r.cache.markClean(ctx, e); err != nil {
		r.log.Warn("clear pending flag failed", "user_id", e.UserID, "date_key", e.DateKey, "error", err)
	}
	return SyncStatus{Synced: true}, nil
}

func (r *SyncedEntryRepo) Delete(ctx context.Context, userID, dateKey string) (SyncStatus, error) {
	if err := r.cache.remove(ctx, userID, dateKey); err != nil {
		return SyncStatus{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.remote.DeleteEntry(rctx, userID, dateKey); err != nil {
		r.log.Warn("remote delete failed, tombstone recorded", "user_id", userID, "date_key", dateKey, "error", err)
		if terr := r.cache.setTombstone(ctx, userID, dateKey); terr != nil {
			return SyncStatus{}, fmt.Errorf("record tombstone: %w", terr)
		}
		return SyncStatus{Err: fmt.Errorf("remote delete: %w", err)}, nil
	}
	return SyncStatus{Synced: true}, nil
}

// List merges remote rows with local writes that have not been pushed yet.
func (r *SyncedEntryRepo) List(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	local, localErr := r.cache.list(ctx, userID)

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	rows, err := r.remote.ListEntries(rctx, userID)
	if err != nil {
		r.log.Warn("remote list failed, using cache", "user_id", userID, "error", err)
		if localErr != nil {
			return nil, localErr
		}
		out := make([]models.JournalEntry, 0, len(local))
		for _, ce := range local {
			out = append(out, ce.JournalEntry)
		}
		sortByDate(out)
		return out, nil
	}
	if localErr != nil {
		r.log.Warn("cache list failed", "user_id", userID, "error", localErr)
	}

	deleted := make(map[string]bool)
	tss, err := r.cache.tombstones(ctx, tombstonePrefix+userID+":")
	if err != nil {
		r.log.Warn("tombstone scan failed", "user_id", userID, "error", err)
	}
	for _, ts := range tss {
		deleted[ts.DateKey] = true
	}

	merged := make(map[string]models.JournalEntry, len(rows))
	for _, row := range rows {
		if deleted[row.DateKey] {
			continue
		}
		merged[row.DateKey] = row
		if err := r.cache.refresh(ctx, row); err != nil {
			r.log.Debug("cache refresh failed", "user_id", userID, "date_key", row.DateKey, "error", err)
		}
	}
	for _, ce := range local {
		if ce.PendingSync {
			merged[ce.DateKey] = ce.JournalEntry
		}
	}

	out := make([]models.JournalEntry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sortByDate(out)
	return out, nil
}

func (r *SyncedEntryRepo) Clear(ctx context.Context, userID string) error {
	return r.cache.clearClean(ctx, userID)
}

// Resync pushes every pending entry and replays every tombstone. Failures are
// counted and left for the next run.
func (r *SyncedEntryRepo) Resync(ctx context.Context) (ResyncReport, error) {
	var rep ResyncReport

	cached, err := r.cache.scan(ctx, entryPrefix)
	if err != nil {
		return rep, err
	}
	for _, ce := range cached {
		if !ce.PendingSync {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := r.push(ctx, ce.JournalEntry); err != nil {
			rep.Failed++
			r.log.Debug("resync push failed", "user_id", ce.UserID, "date_key", ce.DateKey, "error", err)
			continue
		}
		rep.Pushed++
	}

	deleted, err := r.cache.tombstones(ctx, tombstonePrefix)
	if err != nil {
		return rep, err
	}
	for _, ts := range deleted {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.remote.DeleteEntry(rctx, ts.UserID, ts.DateKey)
		cancel()
		if err != nil {
			rep.Failed++
			r.log.Debug("resync delete failed", "user_id", ts.UserID, "date_key", ts.DateKey, "error", err)
			continue
		}
		if err := r.cache.kv.Remove(ctx, tombstoneKey(ts.UserID, ts.DateKey)); err != nil {
			return rep, fmt.Errorf("remove tombstone: %w", err)
		}
		rep.Deleted++
	}
	return rep, nil
}

func (r *SyncedEntryRepo) push(ctx context.Context, e models.JournalEntry) error {
	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.remote.UpsertEntry(rctx, &e); err != nil {
		return err
	}
	return r.cache.markClean(ctx, e)
}

func sortByDate(entries []models.JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DateKey < entries[j].DateKey
	})
}
