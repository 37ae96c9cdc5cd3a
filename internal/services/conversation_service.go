package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/core/parser"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
)

// FallbackReply is appended in place of a reply when generation fails.
const FallbackReply = "Sorry, I couldn't reply to that just now. Please try again in a moment."

// ErrSuperseded is returned by Submit when the session was reset while the
// reply was being generated. The late reply is dropped.
var ErrSuperseded = errors.New("conversation was reset")

// SystemPrompt is the tutoring instruction sent with every submission.
func SystemPrompt(target, native string) string {
	return fmt.Sprintf(`You are a friendly %[1]s tutor reading a learner's journal entry written in %[1]s.
Reply using these bold headers, each followed by a colon, in this order:
**Corrected Entry:** the entry rewritten in natural, correct %[1]s.
**Key Corrections:** a bulleted list of the most important fixes, each with a short %[2]s explanation.
**Phrase to Remember:** one useful phrase from the correction, formatted "phrase" — %[2]s translation.
**Vocabulary Enhancer:** two or three bulleted items, formatted word — %[2]s translation.
**Follow-up:** one question in %[1]s that keeps the conversation going.
**Follow-up Translation:** the follow-up question in %[2]s.
If the entry has no mistakes, omit Corrected Entry, Key Corrections and Phrase to Remember and say so briefly.`, target, native)
}

// Turn is the outcome of one submission.
type Turn struct {
	Reply    models.ConversationMessage `json:"reply"`
	Sections parser.Sections            `json:"-"`
	Failed   bool                       `json:"failed"`
}

// Session is one day's tutoring conversation. Messages are append-only until
// Reset.
type Session struct {
	DateKey string

	mu       sync.Mutex
	messages []models.ConversationMessage
	epoch    uint64

	llm    core.LLMProvider
	prompt string
	log    *logger.Logger
	now    func() time.Time
}

func NewSession(dateKey string, llm core.LLMProvider, systemPrompt string, log *logger.Logger) *Session {
	return &Session{
		DateKey: dateKey,
		llm:     llm,
		prompt:  systemPrompt,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit appends the user's text, asks for a reply and appends it. A
// generation failure is answered with FallbackReply, never returned.
func (s *Session) Submit(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyText
	}

	s.mu.Lock()
	s.messages = append(s.messages, models.ConversationMessage{Sender: models.SenderUser, Text: text, Timestamp: s.now()})
	epoch := s.epoch
	s.mu.Unlock()

	reply, err := s.llm.Generate(ctx, s.prompt, text)
	failed := err != nil
	if failed {
		s.log.Warn("generation failed", "date_key", s.DateKey, "error", err)
		reply = FallbackReply
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return Turn{}, ErrSuperseded
	}
	msg := models.ConversationMessage{Sender: models.SenderAI, Text: reply, Timestamp: s.now()}
	s.messages = append(s.messages, msg)

	turn := Turn{Reply: msg, Failed: failed}
	if !failed {
		turn.Sections = parser.Parse(reply)
	}
	return turn, nil
}

// Messages returns a copy of the history.
func (s *Session) Messages() []models.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConversationMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Reset clears the history. Replies still in flight are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.messages = nil
}

// Finalize stores the conversation as the day's final entry.
func (s *Session) Finalize(ctx context.Context, store *EntryStore, id Identity) (Result, error) {
	msgs := s.Messages()
	text := FinalText(msgs)
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}

	res, err := store.Save(ctx, id, s.DateKey, text, true, WithReply(lastReply(msgs)))
	if err != nil {
		return Result{}, err
	}
	mark, err := store.MarkSubmitted(ctx, id, s.DateKey)
	if err != nil {
		return Result{}, err
	}
	if !mark.Synced {
		res.Synced, res.SyncErr = false, mark.SyncErr
	}
	if mark.Entry != nil {
		res.Entry = mark.Entry
	}
	return res, nil
}

// FinalText joins the corrected section of every ai reply, in order. When no
// reply carries one, the user's own messages are joined instead.
func FinalText(msgs []models.ConversationMessage) string {
	var corrected, written []string
	for _, m := range msgs {
		switch m.Sender {
		case models.SenderAI:
			if c, ok := parser.Parse(m.Text).Get(parser.Corrected); ok {
				corrected = append(corrected, c)
			}
		case models.SenderUser:
			written = append(written, m.Text)
		}
	}
	if len(corrected) > 0 {
		return strings.Join(corrected, "\n")
	}
	return strings.Join(written, "\n")
}

func lastReply(msgs []models.ConversationMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == models.SenderAI && msgs[i].Text != FallbackReply {
			return msgs[i].Text
		}
	}
	return ""
}

// SessionRegistry keeps the live conversation of each user. Starting a
// conversation for another day replaces the previous one.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	llm    core.LLMProvider
	prompt string
	log    *logger.Logger
}

func NewSessionRegistry(llm core.LLMProvider, systemPrompt string, log *logger.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		llm:      llm,
		prompt:   systemPrompt,
		log:      log.With("service", "ConversationSession"),
	}
}

// Open returns the user's session for dateKey, creating it if needed.
func (r *SessionRegistry) Open(userID, dateKey string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		if s.DateKey == dateKey {
			return s
		}
		s.Reset()
	}
	s := NewSession(dateKey, r.llm, r.prompt, r.log.With("user_id", userID))
	r.sessions[userID] = s
	return s
}

// Current returns the user's live session, if any.
func (r *SessionRegistry) Current(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// End tears the user's session down.
func (r *SessionRegistry) End(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.Reset()
		delete(r.sessions, userID)
	}
}
