package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/models"
)

var errOffline = errors.New("remote unreachable")

// fakeRemote is an in-memory core.DbClient. Setting offline makes every call fail.
type fakeRemote struct {
	mu      sync.Mutex
	offline bool
	users   map[string]models.User
	entries map[string]models.JournalEntry
	phrases []models.SavedPhrase
	upserts int
}

var _ core.DbClient = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		users:   map[string]models.User{},
		entries: map[string]models.JournalEntry{},
	}
}

func (f *fakeRemote) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *fakeRemote) check() error {
	if f.offline {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	if _, ok := f.users[u.Email]; ok {
		return errors.New("duplicate email")
	}
	f.users[u.Email] = *u
	return nil
}

func (f *fakeRemote) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeRemote) GetEntry(_ context.Context, userID, dateKey string) (*models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	e, ok := f.entries[userID+"|"+dateKey]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeRemote) UpsertEntry(_ context.Context, e *models.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.upserts++
	f.entries[e.UserID+"|"+e.DateKey] = *e
	return nil
}

func (f *fakeRemote) DeleteEntry(_ context.Context, userID, dateKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	delete(f.entries, userID+"|"+dateKey)
	return nil
}

func (f *fakeRemote) ListEntries(_ context.Context, userID string) ([]models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []models.JournalEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out, nil
}

func (f *fakeRemote) GetPhrase(_ context.Context, userID, phrase string) (*models.SavedPhrase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	for _, p := range f.phrases {
		if p.UserID == userID && p.Phrase == phrase {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeRemote) CreatePhrase(_ context.Context, p *models.SavedPhrase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.phrases = append(f.phrases, *p)
	return nil
}

func (f *fakeRemote) DeletePhrase(_ context.Context, userID, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return false, err
	}
	for i, p := range f.phrases {
		if p.ID == id && p.UserID == userID {
			f.phrases = append(f.phrases[:i], f.phrases[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRemote) ListPhrases(_ context.Context, userID string) ([]models.SavedPhrase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []models.SavedPhrase
	for _, p := range f.phrases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRemote) CountPhrases(ctx context.Context, userID string) (int, error) {
	ps, err := f.ListPhrases(ctx, userID)
	return len(ps), err
}

func (f *fakeRemote) Close() error { return nil }

// fakeLLM replies from a queue; an empty queue or a queued error fails the call.
type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
	block   chan struct{}
}

func (f *fakeLLM) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, userPrompt)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}
