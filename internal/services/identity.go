package services

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors returned by the stores and the conversation session.
var (
	ErrEntryFinalized  = errors.New("entry is final; reopen it before editing")
	ErrEmptyText       = errors.New("text is empty")
	ErrInvalidDateKey  = errors.New("date must be formatted YYYY-MM-DD")
	ErrUnauthenticated = errors.New("sign in required")
)

const guestPrefix = "guest:"

// Identity is who a request acts for. Guests are identified by a device id
// and never reach the remote store.
type Identity struct {
	UserID        string
	Authenticated bool
}

func UserIdentity(userID string) Identity {
	return Identity{UserID: userID, Authenticated: true}
}

func GuestIdentity(deviceID string) Identity {
	return Identity{UserID: guestPrefix + strings.TrimSpace(deviceID)}
}

func (i Identity) Valid() bool {
	return i.UserID != "" && i.UserID != guestPrefix
}

type identityKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.Valid()
}
