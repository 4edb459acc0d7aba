// internal/service/search.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"backcheck-service/internal/events"
	"backcheck-service/internal/store"
	"backcheck-service/pkg/models"
)

const (
	DefaultProfessionLimit = 10
	MaxProfessionLimit     = 50
	// NameCandidateCap bounds findByName: only the first 20 talents by
	// display name are scanned, so matches beyond them are missed.
	NameCandidateCap    = 20
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

var (
	ErrInvalidQuery   = errors.New("invalid search query")
	ErrTalentNotFound = errors.New("talent profile not found")
)

// EventPublisher is satisfied by *events.Bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// SearchService resolves talent profiles for employers and keeps the
// verification audit trail.
type SearchService struct {
	store  store.DocumentStore
	events EventPublisher
	now    func() time.Time
}

func NewSearchService(s store.DocumentStore, events EventPublisher) *SearchService {
	return &SearchService{store: s, events: events, now: time.Now}
}

func talentQuery() store.Query {
	return store.Query{Collection: store.Users}.Where("role", string(models.RoleTalent))
}

// FindByPublicID returns the talent whose public id equals publicID. If the
// uniqueness claim was ever bypassed, the oldest profile wins.
func (s *SearchService) FindByPublicID(ctx context.Context, publicID string) (*models.TalentProfile, error) {
	publicID = strings.ToUpper(strings.TrimSpace(publicID))
	if publicID == "" {
		return nil, ErrInvalidQuery
	}

	q := talentQuery().Where("talentUID", publicID)
	q.OrderBy = &store.Order{Field: "createdAt", Direction: store.Asc}
	q.Limit = 1

	talents, err := s.queryTalents(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(talents) == 0 {
		return nil, ErrTalentNotFound
	}
	return talents[0], nil
}

// FindByProfession is an exact, case-sensitive match, newest first.
func (s *SearchService) FindByProfession(ctx context.Context, profession string, limit int) ([]*models.TalentProfile, error) {
	if strings.TrimSpace(profession) == "" {
		return nil, ErrInvalidQuery
	}
	q := talentQuery().Where("profession", profession)
	q.OrderBy = &store.Order{Field: "createdAt", Direction: store.Desc}
	q.Limit = clampLimit(limit, DefaultProfessionLimit, MaxProfessionLimit)
	return s.queryTalents(ctx, q)
}

// FindByName scans the first NameCandidateCap talents ordered by display
// name and keeps those whose full or display name contains namePart,
// ignoring case.
func (s *SearchService) FindByName(ctx context.Context, namePart string) ([]*models.TalentProfile, error) {
	needle := strings.ToLower(strings.TrimSpace(namePart))
	if needle == "" {
		return nil, ErrInvalidQuery
	}

	q := talentQuery()
	q.OrderBy = &store.Order{Field: "displayName", Direction: store.Asc}
	q.Limit = NameCandidateCap

	candidates, err := s.queryTalents(ctx, q)
	if err != nil {
		return nil, err
	}
	matches := make([]*models.TalentProfile, 0, len(candidates))
	for _, t := range candidates {
		if strings.Contains(strings.ToLower(t.FullName), needle) ||
			strings.Contains(strings.ToLower(t.DisplayName), needle) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

// RecordVerification appends a "viewed" audit row and returns its id.
func (s *SearchService) RecordVerification(ctx context.Context, rec *models.VerificationRecord) (string, error) {
	rec.SearchedAt = s.now().UTC()
	rec.Status = models.VerificationStatusViewed

	id, err := s.store.Append(ctx, store.Verifications, rec.Document())
	if err != nil {
		return "", fmt.Errorf("record verification: %w", err)
	}
	rec.ID = id
	return id, nil
}

// GetSearchHistory lists an employer's verification records, newest first.
func (s *SearchService) GetSearchHistory(ctx context.Context, employerID string, limit int) ([]*models.VerificationRecord, error) {
	q := store.Query{
		Collection: store.Verifications,
		OrderBy:    &store.Order{Field: "searchedAt", Direction: store.Desc},
		Limit:      clampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit),
	}.Where("employerId", employerID)

	snaps, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	out := make([]*models.VerificationRecord, 0, len(snaps))
	for _, snap := range snaps {
		rec, err := models.DecodeVerification(snap.ID, snap.Data)
		if err != nil {
			log.Printf("⚠️ [SEARCH] skipping malformed verification %s: %v", snap.ID, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// LookupResult is what an employer sees after resolving a public id.
type LookupResult struct {
	Talent         *models.TalentProfile `json:"talent"`
	VerificationID string                `json:"verificationId,omitempty"`
}

// LookupForEmployer resolves publicID and records the view. Recording is
// best-effort: a failure is logged and the profile is still returned.
func (s *SearchService) LookupForEmployer(ctx context.Context, employer *models.EmployerProfile, publicID string) (*LookupResult, error) {
	talent, err := s.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	rec := &models.VerificationRecord{
		EmployerID:     employer.UID,
		TalentID:       talent.UID,
		TalentPublicID: talent.PublicID,
		EmployerName:   employer.CompanyName,
		TalentName:     talent.FullName,
	}
	id, err := s.RecordVerification(ctx, rec)
	if err != nil {
		log.Printf("⚠️ [SEARCH] verification not recorded for employer=%s talent=%s: %v", employer.UID, talent.UID, err)
		return &LookupResult{Talent: talent}, nil
	}
	log.Printf("✅ [SEARCH] employer=%s viewed talent=%s (record %s)", employer.UID, talent.PublicID, id)

	if s.events != nil {
		evt := events.VerificationRecorded{
			RecordID:       id,
			EmployerID:     rec.EmployerID,
			EmployerName:   rec.EmployerName,
			TalentID:       rec.TalentID,
			TalentPublicID: rec.TalentPublicID,
			TalentName:     rec.TalentName,
			SearchedAt:     rec.SearchedAt,
		}
		if err := s.events.Publish(ctx, events.TopicVerificationRecorded, evt); err != nil {
			log.Printf("⚠️ [SEARCH] verification event not published: %v", err)
		}
	}
	return &LookupResult{Talent: talent, VerificationID: id}, nil
}

func (s *SearchService) queryTalents(ctx context.Context, q store.Query) ([]*models.TalentProfile, error) {
	snaps, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search talents: %w", err)
	}
	out := make([]*models.TalentProfile, 0, len(snaps))
	for _, snap := range snaps {
		p, err := models.DecodeProfile(snap.ID, snap.Data)
		if err != nil || p.Talent == nil {
			log.Printf("⚠️ [SEARCH] skipping malformed profile %s: %v", snap.ID, err)
			continue
		}
		out = append(out, p.Talent)
	}
	return out, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
