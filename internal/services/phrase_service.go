package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/core/parser"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
)

// PhraseStore keeps the phrases a user saved for review. Phrases live in the
// remote store only, so guests cannot save any.
type PhraseStore struct {
	remote core.PhraseRemote
	log    *logger.Logger
	now    func() time.Time
}

func NewPhraseStore(remote core.PhraseRemote, log *logger.Logger) *PhraseStore {
	return &PhraseStore{
		remote: remote,
		log:    log.With("service", "PhraseStore"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *PhraseStore) Exists(ctx context.Context, id Identity, phrase string) (bool, error) {
	if !id.Authenticated {
		return false, ErrUnauthenticated
	}
	p, err := s.remote.GetPhrase(ctx, id.UserID, strings.TrimSpace(phrase))
	if err != nil {
		return false, fmt.Errorf("get phrase: %w", err)
	}
	return p != nil, nil
}

// Add saves phrase unless the user already has it, in which case the stored
// phrase is returned with created=false.
func (s *PhraseStore) Add(ctx context.Context, id Identity, phrase, translation string) (*models.SavedPhrase, bool, error) {
	if !id.Authenticated {
		return nil, false, ErrUnauthenticated
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, false, ErrEmptyText
	}

	existing, err := s.remote.GetPhrase(ctx, id.UserID, phrase)
	if err != nil {
		return nil, false, fmt.Errorf("get phrase: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	p := &models.SavedPhrase{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		Phrase:      phrase,
		Translation: strings.TrimSpace(translation),
		CreatedAt:   s.now(),
	}
	if err := s.remote.CreatePhrase(ctx, p); err != nil {
		return nil, false, fmt.Errorf("create phrase: %w", err)
	}
	s.log.Debug("phrase saved", "user_id", id.UserID, "phrase_id", p.ID)
	return p, true, nil
}

// Remove deletes the phrase when it belongs to the user. Unknown, foreign or
// malformed ids report false.
func (s *PhraseStore) Remove(ctx context.Context, id Identity, phraseID string) (bool, error) {
	if !id.Authenticated {
		return false, ErrUnauthenticated
	}
	if _, err := uuid.Parse(phraseID); err != nil {
		return false, nil
	}
	ok, err := s.remote.DeletePhrase(ctx, id.UserID, phraseID)
	if err != nil {
		return false, fmt.Errorf("delete phrase: %w", err)
	}
	return ok, nil
}

func (s *PhraseStore) ListAll(ctx context.Context, id Identity) ([]models.SavedPhrase, error) {
	if !id.Authenticated {
		return nil, ErrUnauthenticated
	}
	ps, err := s.remote.ListPhrases(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list phrases: %w", err)
	}
	return ps, nil
}

func (s *PhraseStore) Count(ctx context.Context, id Identity) (int, error) {
	if !id.Authenticated {
		return 0, ErrUnauthenticated
	}
	return s.remote.CountPhrases(ctx, id.UserID)
}

// Candidate is an extracted item annotated with whether it is already saved.
type Candidate struct {
	parser.PhraseItem
	Saved bool `json:"saved"`
}

// Candidates extracts the savable items of a section body. For guests every
// item is reported unsaved.
func (s *PhraseStore) Candidates(ctx context.Context, id Identity, body string) ([]Candidate, error) {
	items := parser.ExtractPhrases(body)
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		c := Candidate{PhraseItem: it}
		if id.Authenticated {
			saved, err := s.Exists(ctx, id, it.Text)
			if err != nil {
				return nil, err
			}
			c.Saved = saved
		}
		out = append(out, c)
	}
	return out, nil
}
