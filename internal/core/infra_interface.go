package core

import (
	"context"

	"github.com/markdave123-py/Penpal/internal/models"
)

// UserRemote is the identity-provider slice of the remote store.
type UserRemote interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)
}

// EntryRemote is keyed upsert/select/delete of journal entries by (userID, dateKey).
// Not-found is reported as (nil, nil) / (false, nil), never as an error.
type EntryRemote interface {
	GetEntry(ctx context.Context, userID, dateKey string) (*models.JournalEntry, error)
	UpsertEntry(ctx context.Context, entry *models.JournalEntry) error
	DeleteEntry(ctx context.Context, userID, dateKey string) error
	ListEntries(ctx context.Context, userID string) ([]models.JournalEntry, error)
}

// PhraseRemote stores saved phrases keyed by (userID, phrase) and (userID, id).
type PhraseRemote interface {
	GetPhrase(ctx context.Context, userID, phrase string) (*models.SavedPhrase, error)
	CreatePhrase(ctx context.Context, p *models.SavedPhrase) error
	DeletePhrase(ctx context.Context, userID, id string) (bool, error)
	ListPhrases(ctx context.Context, userID string) ([]models.SavedPhrase, error)
	CountPhrases(ctx context.Context, userID string) (int, error)
}

// DbClient defines all persistence operations your services will need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	UserRemote
	EntryRemote
	PhraseRemote

	Close() error
}

// KVCache is the local cache collaborator: a string-keyed store that survives restarts.
// Get reports a missing key with ok=false and a nil error.
type KVCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
}
