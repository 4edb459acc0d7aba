// internal/sync/orphan_sweeper.go
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backcheck-service/internal/profile"
	"backcheck-service/internal/store"
	"backcheck-service/pkg/models"
)

const (
	lastSweepKey = "last_orphan_sweep"
	sweepBatch   = 100
)

// PrincipalDeleter is the slice of identity.Provider the sweeper needs.
type PrincipalDeleter interface {
	DeletePrincipal(ctx context.Context, uid string) error
}

// ProfileLookup is satisfied by *profile.Repository.
type ProfileLookup interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
}

// OrphanSweeper removes principals that were left without a profile by a
// failed registration, so their email can be registered again.
type OrphanSweeper struct {
	store    store.DocumentStore
	provider PrincipalDeleter
	profiles ProfileLookup
	interval time.Duration
	now      func() time.Time
}

func NewOrphanSweeper(s store.DocumentStore, provider PrincipalDeleter, profiles ProfileLookup, interval time.Duration) *OrphanSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &OrphanSweeper{
		store:    s,
		provider: provider,
		profiles: profiles,
		interval: interval,
		now:      time.Now,
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (s *OrphanSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("⏰ [SWEEP] Orphan sweeper running every %v", s.interval)
		for {
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Printf("❌ [SWEEP] sweep failed: %v", err)
			}
			select {
			case <-ctx.Done():
				log.Println("🛑 [SWEEP] Orphan sweeper stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

// SweepOnce processes one batch of orphan records and returns how many
// were resolved. An orphan whose profile has since appeared is dropped
// without deleting the principal.
func (s *OrphanSweeper) SweepOnce(ctx context.Context) (int, error) {
	snaps, err := s.store.Query(ctx, store.Query{Collection: store.Orphans, Limit: sweepBatch})
	if err != nil {
		return 0, fmt.Errorf("list orphans: %w", err)
	}
	if len(snaps) > 0 {
		log.Printf("🔄 [SWEEP] %d orphan principals pending", len(snaps))
	}

	resolved := 0
	for _, snap := range snaps {
		rec, err := models.DecodeOrphan(snap.Data)
		if err != nil {
			log.Printf("⚠️ [SWEEP] malformed orphan %s: %v", snap.ID, err)
			continue
		}
		if rec.UID == "" {
			rec.UID = snap.ID
		}
		if err := s.resolve(ctx, rec); err != nil {
			rec.Attempts++
			log.Printf("⚠️ [SWEEP] orphan %s attempt %d failed: %v", rec.UID, rec.Attempts, err)
			if err := s.store.Put(ctx, store.Orphans, snap.ID, rec.Document()); err != nil {
				log.Printf("❌ [SWEEP] could not update orphan %s: %v", rec.UID, err)
			}
			continue
		}
		if err := s.store.Delete(ctx, store.Orphans, snap.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("❌ [SWEEP] could not clear orphan %s: %v", rec.UID, err)
			continue
		}
		resolved++
	}

	if err := s.updateLastSweep(ctx, s.now()); err != nil {
		log.Printf("⚠️ [SWEEP] failed to record sweep time: %v", err)
	}
	if resolved > 0 {
		log.Printf("✅ [SWEEP] resolved %d orphan principals", resolved)
	}
	return resolved, nil
}

func (s *OrphanSweeper) resolve(ctx context.Context, rec *models.OrphanRecord) error {
	_, err := s.profiles.Get(ctx, rec.UID)
	switch {
	case err == nil:
		log.Printf("ℹ️ [SWEEP] %s now has a profile, keeping principal", rec.UID)
		return nil
	case !errors.Is(err, profile.ErrNotFound):
		return fmt.Errorf("check profile: %w", err)
	}
	return s.provider.DeletePrincipal(ctx, rec.UID)
}

// LastSweep returns the zero time if no sweep has been recorded.
func (s *OrphanSweeper) LastSweep(ctx context.Context) (time.Time, error) {
	doc, err := s.store.Get(ctx, store.SyncConfig, lastSweepKey)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	value, _ := doc["value"].(string)
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse sweep time: %w", err)
	}
	return parsed, nil
}

func (s *OrphanSweeper) updateLastSweep(ctx context.Context, at time.Time) error {
	cfg := models.SyncConfig{
		Key:   lastSweepKey,
		Value: at.UTC().Format(time.RFC3339),
	}
	return s.store.Put(ctx, store.SyncConfig, cfg.Key, store.Document{
		"key":   cfg.Key,
		"value": cfg.Value,
	})
}
