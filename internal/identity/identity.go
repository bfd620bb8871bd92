// Package identity models the follower identity behind favorites, follows
// and notifications. A follower is either an anonymous browser session or
// an authenticated user; all persistence code queries through this type
// instead of branching on authentication state.
package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the identity variants.
type Kind int

const (
	// AnonymousSession identifies a follower by an opaque session token.
	AnonymousSession Kind = iota
	// AuthenticatedUser identifies a follower by a user ID.
	AuthenticatedUser
)

// Identity is a follower identity. The zero value is an anonymous session
// with an empty token, which matches nothing.
type Identity struct {
	kind         Kind
	sessionToken string
	userID       uint
}

// NewSession returns an identity for an anonymous session token.
func NewSession(token string) Identity {
	return Identity{kind: AnonymousSession, sessionToken: token}
}

// NewUser returns an identity for an authenticated user.
func NewUser(userID uint) Identity {
	return Identity{kind: AuthenticatedUser, userID: userID}
}

// Kind returns the identity variant.
func (id Identity) Kind() Kind {
	return id.kind
}

// SessionToken returns the session token and true for anonymous sessions.
func (id Identity) SessionToken() (string, bool) {
	if id.kind != AnonymousSession {
		return "", false
	}
	return id.sessionToken, true
}

// UserID returns the user ID and true for authenticated users.
func (id Identity) UserID() (uint, bool) {
	if id.kind != AuthenticatedUser {
		return 0, false
	}
	return id.userID, true
}

// Valid reports whether the identity can match any persisted rows.
func (id Identity) Valid() bool {
	switch id.kind {
	case AnonymousSession:
		return id.sessionToken != ""
	case AuthenticatedUser:
		return id.userID != 0
	default:
		return false
	}
}

// String renders the identity for log output.
func (id Identity) String() string {
	switch id.kind {
	case AuthenticatedUser:
		return fmt.Sprintf("user:%d", id.userID)
	default:
		return fmt.Sprintf("session:%s", id.sessionToken)
	}
}

// NewSessionToken mints a fresh opaque session token.
func NewSessionToken() string {
	return uuid.New().String()
}
