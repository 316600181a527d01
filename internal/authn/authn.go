// Package authn is the authentication collaborator: it answers who is
// currently signed in and broadcasts sign-in state changes. It does not
// decide what the subject may do — that is authgate's job.
package authn

import "context"

// Identity describes a signed-in subject as reported by the identity
// provider.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Authenticator exposes the current signed-in identity, sign-in/sign-out
// calls, and a state-change subscription.
type Authenticator interface {
	// Current returns the signed-in identity or nil.
	Current() *Identity

	// SignIn validates the provider credential and establishes a session.
	SignIn(ctx context.Context, credential string) (*Identity, error)

	// SignOut tears down the session. No-op when not signed in.
	SignOut(ctx context.Context) error

	// Subscribe registers fn to be called with the new identity (or nil)
	// whenever sign-in state changes. The returned func unsubscribes.
	Subscribe(fn func(*Identity)) func()
}
