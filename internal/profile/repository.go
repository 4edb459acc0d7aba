// internal/profile/repository.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backcheck-service/internal/cache"
	"backcheck-service/internal/publicid"
	"backcheck-service/internal/store"
	"backcheck-service/pkg/models"
)

// maxClaimAttempts bounds retries when a freshly drawn public id is taken.
const maxClaimAttempts = 5

var (
	ErrNotFound          = errors.New("profile not found")
	ErrNotTalent         = errors.New("profile is not a talent profile")
	ErrPublicIDExhausted = errors.New("could not allocate a unique public id")
)

// Repository reads and writes users/{uid}. Reads go through the cache; every
// write invalidates it.
type Repository struct {
	store   store.DocumentStore
	cache   cache.Cache
	newID   func() string
	nowFunc func() time.Time
}

type Option func(*Repository)

// WithIDGenerator replaces publicid.Generate, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.nowFunc = now }
}

func NewRepository(s store.DocumentStore, c cache.Cache, opts ...Option) *Repository {
	r := &Repository{
		store:   s,
		cache:   c,
		newID:   publicid.Generate,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Now() time.Time {
	return r.nowFunc().UTC()
}

func cacheKey(uid string) string {
	return "users:" + uid
}

// Get returns ErrNotFound when no profile document exists for uid.
func (r *Repository) Get(ctx context.Context, uid string) (*models.Profile, error) {
	if r.cache != nil {
		var doc map[string]interface{}
		if err := cache.GetJSON(ctx, r.cache, cacheKey(uid), &doc); err == nil {
			if p, err := models.DecodeProfile(uid, doc); err == nil {
				return p, nil
			}
		} else if !errors.Is(err, cache.ErrCacheNotFound) {
			log.Printf("⚠️ [PROFILE] cache read failed for %s: %v", uid, err)
		}
	}

	doc, err := r.store.Get(ctx, store.Users, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", uid, err)
	}
	p, err := models.DecodeProfile(uid, doc)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := cache.SetJSON(ctx, r.cache, cacheKey(uid), doc); err != nil {
			log.Printf("⚠️ [PROFILE] cache write failed for %s: %v", uid, err)
		}
	}
	return p, nil
}

// Put overwrites the profile document. Last write wins.
func (r *Repository) Put(ctx context.Context, uid string, p *models.Profile) error {
	doc, err := p.Document()
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, store.Users, uid, doc); err != nil {
		return fmt.Errorf("write profile %s: %w", uid, err)
	}
	r.invalidate(ctx, uid)
	return nil
}

// Delete removes the profile document and, for talents, its public id claim.
func (r *Repository) Delete(ctx context.Context, uid string) error {
	p, err := r.Get(ctx, uid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := r.store.Delete(ctx, store.Users, uid); err != nil {
		return err
	}
	r.invalidate(ctx, uid)
	if p != nil && p.Talent != nil && p.Talent.PublicID != "" {
		return r.store.Delete(ctx, store.TalentIDs, p.Talent.PublicID)
	}
	return nil
}

// CreateTalent claims a fresh public id under talent_ids/{publicId} and then
// writes the profile. The claim is released if the profile write fails.
func (r *Repository) CreateTalent(ctx context.Context, t *models.TalentProfile) error {
	var claimed string
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		candidate := r.newID()
		err := r.store.Create(ctx, store.TalentIDs, candidate, store.Document{
			"uid":       t.UID,
			"claimedAt": r.Now(),
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Printf("⚠️ [PROFILE] public id collision on attempt %d", attempt+1)
			continue
		}
		if err != nil {
			return fmt.Errorf("claim public id: %w", err)
		}
		claimed = candidate
		break
	}
	if claimed == "" {
		return ErrPublicIDExhausted
	}

	t.PublicID = claimed
	if err := r.Put(ctx, t.UID, &models.Profile{Talent: t}); err != nil {
		if relErr := r.store.Delete(ctx, store.TalentIDs, claimed); relErr != nil {
			log.Printf("❌ [PROFILE] failed to release public id %s: %v", claimed, relErr)
		}
		t.PublicID = ""
		return err
	}
	return nil
}

func (r *Repository) CreateEmployer(ctx context.Context, e *models.EmployerProfile) error {
	return r.Put(ctx, e.UID, &models.Profile{Employer: e})
}

// AddDeviceToken registers a push token on a talent profile.
func (r *Repository) AddDeviceToken(ctx context.Context, uid, token string) error {
	return r.updateTalent(ctx, uid, func(t *models.TalentProfile) {
		for _, existing := range t.DeviceTokens {
			if existing == token {
				return
			}
		}
		t.DeviceTokens = append(t.DeviceTokens, token)
	})
}

func (r *Repository) RemoveDeviceToken(ctx context.Context, uid, token string) error {
	return r.updateTalent(ctx, uid, func(t *models.TalentProfile) {
		kept := t.DeviceTokens[:0]
		for _, existing := range t.DeviceTokens {
			if existing != token {
				kept = append(kept, existing)
			}
		}
		t.DeviceTokens = kept
	})
}

// SetPhotoURL updates photoURL on any profile variant.
func (r *Repository) SetPhotoURL(ctx context.Context, uid, url string) (*models.Profile, error) {
	p, err := r.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	base := p.Principal()
	base.PhotoURL = url
	base.UpdatedAt = r.Now()
	if err := r.Put(ctx, uid, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) updateTalent(ctx context.Context, uid string, mutate func(*models.TalentProfile)) error {
	p, err := r.Get(ctx, uid)
	if err != nil {
		return err
	}
	if p.Talent == nil {
		return ErrNotTalent
	}
	mutate(p.Talent)
	p.Talent.UpdatedAt = r.Now()
	return r.Put(ctx, uid, p)
}

func (r *Repository) invalidate(ctx context.Context, uid string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, cacheKey(uid)); err != nil {
		log.Printf("⚠️ [PROFILE] cache invalidate failed for %s: %v", uid, err)
	}
}
