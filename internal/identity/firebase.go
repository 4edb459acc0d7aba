// internal/identity/firebase.go
package identity

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
)

// Firebase manages principals through the Admin SDK. The Admin SDK cannot
// check passwords, so sign-in goes through the Identity Toolkit REST API.
type Firebase struct {
	auth     *auth.Client
	toolkit  *ToolkitClient
	validate *validator.Validate
}

func NewFirebase(ctx context.Context, app *firebase.App, toolkit *ToolkitClient) (*Firebase, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth client init failed: %w", err)
	}
	return &Firebase{auth: client, toolkit: toolkit, validate: validator.New()}, nil
}

// CreatePrincipal checks the email locally first: the Admin SDK rejects a
// malformed address with an error auth.IsInvalidEmail does not recognise.
func (f *Firebase) CreatePrincipal(ctx context.Context, email, password string) (string, error) {
	if err := f.validate.Var(email, "required,email"); err != nil {
		return "", newError(CodeInvalidEmail, err)
	}
	if len(password) < MinPasswordLength {
		return "", newError(CodeWeakPassword, nil)
	}
	user, err := f.auth.CreateUser(ctx, (&auth.UserToCreate{}).Email(email).Password(password))
	switch {
	case err == nil:
		return user.UID, nil
	case auth.IsEmailAlreadyExists(err):
		return "", newError(CodeEmailInUse, err)
	case auth.IsInvalidEmail(err):
		return "", newError(CodeInvalidEmail, err)
	}
	return "", fmt.Errorf("create principal: %w", err)
}

func (f *Firebase) Authenticate(ctx context.Context, email, password string) (*Credentials, error) {
	return f.toolkit.SignInWithPassword(ctx, email, password)
}

func (f *Firebase) VerifyToken(ctx context.Context, idToken string) (string, error) {
	tok, err := f.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	switch {
	case err == nil:
		return tok.UID, nil
	case auth.IsUserDisabled(err):
		return "", newError(CodeUserDisabled, err)
	case auth.IsIDTokenRevoked(err), auth.IsIDTokenInvalid(err):
		return "", newError(CodeInvalidToken, err)
	}
	return "", fmt.Errorf("verify token: %w", err)
}

// SignOut revokes every refresh token of uid so outstanding ID tokens fail
// the revocation check.
func (f *Firebase) SignOut(ctx context.Context, uid string) error {
	if err := f.auth.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke tokens for %s: %w", uid, err)
	}
	return nil
}

func (f *Firebase) DeletePrincipal(ctx context.Context, uid string) error {
	err := f.auth.DeleteUser(ctx, uid)
	if err != nil && !auth.IsUserNotFound(err) {
		return fmt.Errorf("delete principal %s: %w", uid, err)
	}
	if err == nil {
		log.Printf("🗑️ [AUTH] deleted principal %s", uid)
	}
	return nil
}
