// internal/service/account.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backcheck-service/internal/events"
	"backcheck-service/internal/guard"
	"backcheck-service/internal/identity"
	"backcheck-service/internal/profile"
	"backcheck-service/internal/store"
	"backcheck-service/pkg/models"
)

var (
	// ErrRegistrationIncomplete means the principal was created but its
	// profile could not be written. The principal has been removed or
	// queued for removal.
	ErrRegistrationIncomplete = errors.New("registration could not be completed")
	// ErrProfileMissing is returned by SignIn for a principal with no
	// profile document.
	ErrProfileMissing = errors.New("account has no profile")
)

const (
	MsgRegisterFailed  = "Failed to create account"
	MsgSignInFailed    = "Failed to sign in. Please check your credentials."
	MsgProfileMissing  = "Your account setup was not completed. Please register again."
	MsgSearchFailed    = "Search failed. Please try again."
	MsgTalentNotFound  = "No talent found with this ID"
	orphanReasonWrite  = "profile write failed during registration"
	orphanReasonSignIn = "profile missing at sign-in"
)

// AccountService runs the registration, sign-in and sign-out flows. Each
// flow is an ordered chain of backend calls under BackendTimeout.
type AccountService struct {
	provider  identity.Provider
	profiles  *profile.Repository
	store     store.DocumentStore
	publisher identity.Publisher
	events    EventPublisher
	timeout   time.Duration
}

func NewAccountService(
	provider identity.Provider,
	profiles *profile.Repository,
	s store.DocumentStore,
	publisher identity.Publisher,
	events EventPublisher,
	timeout time.Duration,
) *AccountService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AccountService{
		provider:  provider,
		profiles:  profiles,
		store:     s,
		publisher: publisher,
		events:    events,
		timeout:   timeout,
	}
}

func (s *AccountService) RegisterTalent(ctx context.Context, req models.RegisterTalentRequest) (*models.AuthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uid, err := s.provider.CreatePrincipal(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.profiles.Now()
	talent := &models.TalentProfile{
		Principal: models.Principal{
			UID:         uid,
			Email:       req.Email,
			Role:        models.RoleTalent,
			CreatedAt:   now,
			UpdatedAt:   now,
			DisplayName: req.FullName,
		},
		FullName:   req.FullName,
		Profession: req.Profession,
		Phone:      req.Phone,
	}
	if err := s.profiles.CreateTalent(ctx, talent); err != nil {
		s.compensate(uid, req.Email, err)
		return nil, fmt.Errorf("%w: %v", ErrRegistrationIncomplete, err)
	}
	log.Printf("✅ [ACCOUNT] Registered talent %s with public id %s", uid, talent.PublicID)

	return s.completeRegistration(ctx, &models.Profile{Talent: talent}, req.Email, req.Password)
}

func (s *AccountService) RegisterEmployer(ctx context.Context, req models.RegisterEmployerRequest) (*models.AuthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uid, err := s.provider.CreatePrincipal(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.profiles.Now()
	employer := &models.EmployerProfile{
		Principal: models.Principal{
			UID:         uid,
			Email:       req.Email,
			Role:        models.RoleEmployer,
			CreatedAt:   now,
			UpdatedAt:   now,
			DisplayName: req.CompanyName,
		},
		CompanyName:   req.CompanyName,
		Industry:      req.Industry,
		EmployeeCount: req.EmployeeCount,
		Phone:         req.Phone,
		Subscription:  models.DefaultSubscription(),
	}
	if err := s.profiles.CreateEmployer(ctx, employer); err != nil {
		s.compensate(uid, req.Email, err)
		return nil, fmt.Errorf("%w: %v", ErrRegistrationIncomplete, err)
	}
	log.Printf("✅ [ACCOUNT] Registered employer %s (%s)", uid, employer.CompanyName)

	return s.completeRegistration(ctx, &models.Profile{Employer: employer}, req.Email, req.Password)
}

// completeRegistration publishes the new session, announces the principal
// and issues a token. A failed token issue does not undo the registration.
func (s *AccountService) completeRegistration(ctx context.Context, p *models.Profile, email, password string) (*models.AuthResponse, error) {
	uid := p.UID()
	s.publisher.Publish(identity.StateChange{UID: uid, Authenticated: true})

	if s.events != nil {
		evt := events.PrincipalRegistered{
			UID:         uid,
			Email:       email,
			Role:        string(p.Role()),
			DisplayName: p.Principal().DisplayName,
			At:          p.Principal().CreatedAt,
		}
		if p.Talent != nil {
			evt.PublicID = p.Talent.PublicID
		}
		if err := s.events.Publish(ctx, events.TopicPrincipalRegistered, evt); err != nil {
			log.Printf("⚠️ [ACCOUNT] registration event not published for %s: %v", uid, err)
		}
	}

	resp := &models.AuthResponse{
		Redirect: guard.HomeRoute(p.Role()),
		Profile:  p,
	}
	creds, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		log.Printf("⚠️ [ACCOUNT] registered %s but token issue failed: %v", uid, err)
		return resp, nil
	}
	resp.Token = creds.IDToken
	resp.ExpiresIn = int64(creds.ExpiresIn / time.Second)
	return resp, nil
}

// compensate deletes a principal whose profile write failed. If that fails
// too, an orphan record is left for the sweeper. It runs on a fresh context
// because the flow's own deadline may already have passed.
func (s *AccountService) compensate(uid, email string, cause error) {
	log.Printf("❌ [ACCOUNT] profile write failed for %s: %v", uid, cause)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.provider.DeletePrincipal(ctx, uid)
	if err == nil {
		log.Printf("🔄 [ACCOUNT] removed principal %s after failed registration", uid)
		return
	}
	log.Printf("⚠️ [ACCOUNT] could not remove principal %s: %v", uid, err)
	s.queueOrphan(ctx, uid, email, orphanReasonWrite)
}

func (s *AccountService) queueOrphan(ctx context.Context, uid, email, reason string) {
	rec := models.OrphanRecord{
		UID:       uid,
		Email:     email,
		Reason:    reason,
		CreatedAt: s.profiles.Now(),
	}
	if err := s.store.Put(ctx, store.Orphans, uid, rec.Document()); err != nil {
		log.Printf("❌ [ACCOUNT] orphan %s not recorded: %v", uid, err)
		return
	}
	log.Printf("📝 [ACCOUNT] queued orphan principal %s (%s)", uid, reason)
}

// SignIn authenticates, loads the profile and resolves the landing route.
// redirect is honoured only when guard.SignInRedirect allows it.
func (s *AccountService) SignIn(ctx context.Context, email, password, redirect string) (*models.AuthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	creds, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.Get(ctx, creds.UID)
	if errors.Is(err, profile.ErrNotFound) {
		log.Printf("⚠️ [ACCOUNT] %s signed in without a profile document", creds.UID)
		s.queueOrphan(ctx, creds.UID, email, orphanReasonSignIn)
		return nil, ErrProfileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	s.publisher.Publish(identity.StateChange{UID: creds.UID, Authenticated: true})
	return &models.AuthResponse{
		Token:     creds.IDToken,
		ExpiresIn: int64(creds.ExpiresIn / time.Second),
		Redirect:  guard.SignInRedirect(p.Role(), redirect),
		Profile:   p,
	}, nil
}

// SignOut revokes the principal's tokens, publishes the signed-out state
// and returns the landing route.
func (s *AccountService) SignOut(ctx context.Context, uid string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.provider.SignOut(ctx, uid); err != nil {
		return "", fmt.Errorf("sign out %s: %w", uid, err)
	}
	s.publisher.Publish(identity.StateChange{UID: uid, Authenticated: false})
	log.Printf("👋 [ACCOUNT] %s signed out", uid)
	return guard.LandingRoute, nil
}
