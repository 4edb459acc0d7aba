// internal/session/store.go
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"backcheck-service/internal/identity"
	"backcheck-service/internal/profile"
	"backcheck-service/pkg/models"
)

// ErrProfileMissing is returned when an authenticated principal has no
// profile document, e.g. after a registration whose profile write failed.
var ErrProfileMissing = errors.New("authenticated principal has no profile document")

// ProfileLoader is satisfied by *profile.Repository.
type ProfileLoader interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
}

// Snapshot is the published session value. Loading is true until the first
// resolution.
type Snapshot struct {
	UID            string          `json:"uid,omitempty"`
	Profile        *models.Profile `json:"profile"`
	Loading        bool            `json:"loading"`
	ProfileMissing bool            `json:"profileMissing,omitempty"`
}

func (s Snapshot) Authenticated() bool {
	return s.Profile != nil
}

// Store holds the current principal's session and notifies subscribers on
// every change. Subscribers run synchronously and must not call back into
// the Store.
type Store struct {
	loader ProfileLoader

	notifyMu sync.Mutex
	mu       sync.RWMutex
	snap     Snapshot
	seq      uint64
	subs     map[int]func(Snapshot)
	nextSub  int
}

func NewStore(loader ProfileLoader) *Store {
	return &Store{
		loader: loader,
		snap:   Snapshot{Loading: true},
		subs:   make(map[int]func(Snapshot)),
	}
}

func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn for future changes and returns its cancel func.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// HandleStateChange applies one provider transition. A sign-out publishes
// an empty snapshot immediately; a sign-in fetches the profile first. A
// fetch that completes after a newer change is dropped.
func (s *Store) HandleStateChange(ctx context.Context, change identity.StateChange) error {
	if !change.Authenticated {
		s.Clear()
		return nil
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	p, err := s.loader.Get(ctx, change.UID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		log.Printf("⚠️ [SESSION] principal %s has no profile document", change.UID)
		s.set(seq, Snapshot{UID: change.UID, ProfileMissing: true})
		return ErrProfileMissing
	case err != nil:
		return err
	}
	s.set(seq, Snapshot{UID: change.UID, Profile: p})
	return nil
}

// Publish sets p as the current session without a fetch. Registration uses
// it right after writing the profile.
func (s *Store) Publish(p *models.Profile) {
	s.set(s.bump(), Snapshot{UID: p.UID(), Profile: p})
}

// Clear publishes the signed-out snapshot.
func (s *Store) Clear() {
	s.set(s.bump(), Snapshot{})
}

// Watch applies changes until ctx is done or the channel closes.
func (s *Store) Watch(ctx context.Context, changes <-chan identity.StateChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if err := s.HandleStateChange(ctx, change); err != nil && !errors.Is(err, ErrProfileMissing) {
				log.Printf("❌ [SESSION] failed to resolve %s: %v", change.UID, err)
			}
		}
	}
}

func (s *Store) bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Store) set(seq uint64, snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.snap = snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
