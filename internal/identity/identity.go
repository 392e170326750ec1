// Package identity answers "who is signed in" for every other component and
// manages email/password accounts.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// AuthStateListener receives the signed-in uid, or "" after sign-out.
type AuthStateListener func(uid string)

// Oracle is the source of truth for the current user.
type Oracle interface {
	// CurrentUser returns the signed-in uid.
	CurrentUser() (string, bool)
	SignIn(ctx context.Context, email, password string) error
	// CreateUser registers an account, signs it in and returns its uid.
	CreateUser(ctx context.Context, email, password string) (string, error)
	SignOut() error
	// OnAuthStateChange registers fn and returns a function that removes it.
	OnAuthStateChange(fn AuthStateListener) (cancel func())
}
