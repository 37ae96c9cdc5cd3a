package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/models"
)

const (
	entryPrefix     = "entry:"
	tombstonePrefix = "entry-delete:"
)

type cachedEntry struct {
	models.JournalEntry
	PendingSync bool `json:"pending_sync,omitempty"`
}

type tombstone struct {
	UserID  string `json:"user_id"`
	DateKey string `json:"date_key"`
}

func entryKey(userID, dateKey string) string {
	return entryPrefix + userID + ":" + dateKey
}

func tombstoneKey(userID, dateKey string) string {
	return tombstonePrefix + userID + ":" + dateKey
}

// entryCache is the local half of both repositories. mu guards
// read-modify-write sequences on single keys.
type entryCache struct {
	kv core.KVCache
	mu sync.Mutex
}

func (c *entryCache) load(ctx context.Context, key string) (*cachedEntry, error) {
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	var ce cachedEntry
	if err := json.Unmarshal(raw, &ce); err != nil {
		return nil, fmt.Errorf("decode cached entry %s: %w", key, err)
	}
	return &ce, nil
}

func (c *entryCache) get(ctx context.Context, userID, dateKey string) (*cachedEntry, error) {
	return c.load(ctx, entryKey(userID, dateKey))
}

func (c *entryCache) put(ctx context.Context, e models.JournalEntry, pending bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(ctx, e, pending)
}

func (c *entryCache) putLocked(ctx context.Context, e models.JournalEntry, pending bool) error {
	raw, err := json.Marshal(cachedEntry{JournalEntry: e, PendingSync: pending})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := c.kv.Set(ctx, entryKey(e.UserID, e.DateKey), raw); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	// a newer write supersedes an unsynced delete
	return c.kv.Remove(ctx, tombstoneKey(e.UserID, e.DateKey))
}

func (c *entryCache) remove(ctx context.Context, userID, dateKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(ctx, userID, dateKey)
}

func (c *entryCache) removeLocked(ctx context.Context, userID, dateKey string) error {
	if err := c.kv.Remove(ctx, entryKey(userID, dateKey)); err != nil {
		return fmt.Errorf("cache remove: %w", err)
	}
	return nil
}

// markClean clears the pending flag only if the cached copy is still the
// version that was pushed.
func (c *entryCache) markClean(ctx context.Context, pushed models.JournalEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ce, err := c.get(ctx, pushed.UserID, pushed.DateKey)
	if err != nil || ce == nil || !ce.PendingSync || !sameVersion(ce.JournalEntry, pushed) {
		return err
	}
	return c.putLocked(ctx, ce.JournalEntry, false)
}

// refresh stores a remote copy unless a local write is waiting to be pushed.
func (c *entryCache) refresh(ctx context.Context, e models.JournalEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ce, err := c.get(ctx, e.UserID, e.DateKey)
	if err != nil {
		return err
	}
	if ce != nil && ce.PendingSync {
		return nil
	}
	raw, err := json.Marshal(cachedEntry{JournalEntry: e})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return c.kv.Set(ctx, entryKey(e.UserID, e.DateKey), raw)
}

// dropClean removes a cached copy that the remote no longer has, keeping
// unsynced local writes.
func (c *entryCache) dropClean(ctx context.Context, userID, dateKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ce, err := c.get(ctx, userID, dateKey)
	if err != nil || ce == nil || ce.PendingSync {
		return err
	}
	return c.removeLocked(ctx, userID, dateKey)
}

func (c *entryCache) list(ctx context.Context, userID string) ([]cachedEntry, error) {
	return c.scan(ctx, entryPrefix+userID+":")
}

func (c *entryCache) scan(ctx context.Context, prefix string) ([]cachedEntry, error) {
	keys, err := c.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("cache keys: %w", err)
	}
	out := make([]cachedEntry, 0, len(keys))
	for _, k := range keys {
		ce, err := c.load(ctx, k)
		if err != nil {
			return nil, err
		}
		if ce != nil {
			out = append(out, *ce)
		}
	}
	return out, nil
}

func (c *entryCache) setTombstone(ctx context.Context, userID, dateKey string) error {
	raw, err := json.Marshal(tombstone{UserID: userID, DateKey: dateKey})
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, tombstoneKey(userID, dateKey), raw)
}

func (c *entryCache) hasTombstone(ctx context.Context, userID, dateKey string) (bool, error) {
	_, ok, err := c.kv.Get(ctx, tombstoneKey(userID, dateKey))
	return ok, err
}

func (c *entryCache) tombstones(ctx context.Context, prefix string) ([]tombstone, error) {
	keys, err := c.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("cache keys: %w", err)
	}
	var out []tombstone
	for _, k := range keys {
		raw, ok, err := c.kv.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var ts tombstone
		if err := json.Unmarshal(raw, &ts); err != nil {
			return nil, fmt.Errorf("decode tombstone %s: %w", k, err)
		}
		out = append(out, ts)
	}
	return out, nil
}

// clearClean removes the cached copies of userID that the remote already
// holds. Pending writes and tombstones stay for the next Resync.
func (c *entryCache) clearClean(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, err := c.list(ctx, userID)
	if err != nil {
		return err
	}
	for _, ce := range cached {
		if ce.PendingSync {
			continue
		}
		if err := c.removeLocked(ctx, userID, ce.DateKey); err != nil {
			return err
		}
	}
	return nil
}

func sameVersion(a, b models.JournalEntry) bool {
	return a.Text == b.Text &&
		a.AIReply == b.AIReply &&
		a.Submitted == b.Submitted &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
