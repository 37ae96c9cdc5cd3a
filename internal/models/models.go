package models

import (
	"strings"
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DateKeyLayout is the calendar-day layout used for JournalEntry.DateKey.
const DateKeyLayout = "2006-01-02"

// JournalEntry is one user's entry for one calendar day. (UserID, DateKey) is the natural key.
type JournalEntry struct {
	UserID    string    `db:"user_id" json:"user_id"`
	DateKey   string    `db:"date_key" json:"date_key"` // YYYY-MM-DD
	Text      string    `db:"text" json:"text"`
	AIReply   string    `db:"ai_reply" json:"ai_reply,omitempty"`
	Submitted bool      `db:"submitted" json:"submitted"` // false = draft, true = final
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Active reports whether the entry counts toward metrics: finalized, or
// carrying a recorded reply (legacy rows written before the submitted flag).
func (e JournalEntry) Active() bool {
	return e.Submitted || strings.TrimSpace(e.AIReply) != ""
}

// Sender identifies who authored a conversation message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ConversationMessage is one turn in a tutoring conversation.
type ConversationMessage struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SavedPhrase is a phrase the user chose to keep for review.
type SavedPhrase struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Phrase      string    `db:"phrase" json:"phrase"`
	Translation string    `db:"translation" json:"translation,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MetricsSnapshot is derived from a user's active entries at query time and never stored.
type MetricsSnapshot struct {
	CurrentStreak   int `json:"current_streak"`
	LongestStreak   int `json:"longest_streak"`
	WordsWritten    int `json:"words_written"`
	SavedWordsCount int `json:"saved_words_count"`
}
