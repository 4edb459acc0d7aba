// internal/identity/provider.go
package identity

import (
	"context"
	"time"
)

const MinPasswordLength = 6

// Credentials is the result of a successful password sign-in.
type Credentials struct {
	UID       string
	IDToken   string
	ExpiresIn time.Duration
}

// StateChange is one auth state transition for a principal.
type StateChange struct {
	UID           string
	Authenticated bool
}

// Provider is the external authentication backend.
type Provider interface {
	CreatePrincipal(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (*Credentials, error)
	VerifyToken(ctx context.Context, idToken string) (string, error)
	SignOut(ctx context.Context, uid string) error
	DeletePrincipal(ctx context.Context, uid string) error
}

// Publisher receives auth state transitions.
type Publisher interface {
	Publish(change StateChange)
}
